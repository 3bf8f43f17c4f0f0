package net

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const (
	maxIdleConns     = 10
	timeoutInSeconds = 30
	maxResponseBytes = 2 << 20
	defaultTokenType = "token"
)

// ErrResponseTooLarge is returned when a response body exceeds the budget.
var ErrResponseTooLarge = errors.New("response exceeds byte budget")

// Response is the raw result of a GET: status code and body.
type Response struct {
	StatusCode int
	Body       []byte
}

// Getter performs an HTTP GET with custom headers.
type Getter interface {
	Get(ctx context.Context, url string, headers map[string]string) (*Response, error)
}

// Budget caps the resources a single outcall may consume.
type Budget struct {
	Timeout  time.Duration
	MaxBytes int64
}

// DefaultBudget returns the budget used when none is configured.
func DefaultBudget() Budget {
	return Budget{
		Timeout:  timeoutInSeconds * time.Second,
		MaxBytes: maxResponseBytes,
	}
}

func (b Budget) withDefaults() Budget {
	d := DefaultBudget()
	if b.Timeout <= 0 {
		b.Timeout = d.Timeout
	}
	if b.MaxBytes <= 0 {
		b.MaxBytes = d.MaxBytes
	}
	return b
}

// Client is the Getter backed by net/http.
type Client struct {
	http   *http.Client
	budget Budget
}

func newTransport(b Budget) *http.Transport {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          maxIdleConns,
		IdleConnTimeout:       b.Timeout,
		ResponseHeaderTimeout: b.Timeout,
	}
}

// NewClient returns a Client bounded by b. When token is not empty every
// request carries it as an OAuth2 token.
func NewClient(ctx context.Context, token string, b Budget) *Client {
	b = b.withDefaults()
	base := &http.Client{Transport: newTransport(b)}

	if token == "" {
		return WrapClient(base, b)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{
			TokenType:   defaultTokenType,
			AccessToken: token,
		},
	)

	return WrapClient(oauth2.NewClient(ctx, ts), b)
}

// WrapClient returns a Client using an existing http.Client, bounded by b.
func WrapClient(c *http.Client, b Budget) *Client {
	if c == nil {
		c = http.DefaultClient
	}
	return &Client{http: c, budget: b.withDefaults()}
}

// Get issues a GET for url. Non-2xx responses are returned, not treated as
// errors; the caller decides what a status means.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.budget.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating GET request: %w", err)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req) //nolint:gosec // G107: URL built from configured endpoints
	if err != nil {
		return nil, fmt.Errorf("sending GET request: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, c.budget.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(b)) > c.budget.MaxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, c.budget.MaxBytes)
	}

	slog.Debug("http get",
		"host", req.URL.Host,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"bytes", len(b),
	)

	return &Response{StatusCode: resp.StatusCode, Body: b}, nil
}
