package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// Prompt shows the user code and verification URL to the user. Returning an
// error aborts the flow before any token is polled for.
type Prompt func(code *oauth2.DeviceAuthResponse) error

// DeviceFlow obtains a GitHub token through the OAuth device authorization
// grant. No scopes are requested: public events need read-only access.
type DeviceFlow struct {
	conf *oauth2.Config
}

// NewDeviceFlow returns a device flow for clientID against GitHub.
func NewDeviceFlow(clientID string) (*DeviceFlow, error) {
	return NewDeviceFlowWithEndpoint(clientID, github.Endpoint)
}

// NewDeviceFlowWithEndpoint returns a device flow against an arbitrary
// authorization server.
func NewDeviceFlowWithEndpoint(clientID string, ep oauth2.Endpoint) (*DeviceFlow, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, errors.New("clientID is required")
	}
	if ep.DeviceAuthURL == "" || ep.TokenURL == "" {
		return nil, errors.New("endpoint requires device and token URLs")
	}

	return &DeviceFlow{
		conf: &oauth2.Config{
			ClientID: clientID,
			Endpoint: ep,
		},
	}, nil
}

// Token runs the flow: it requests a device code, hands it to prompt, then
// polls until the user approves, the code expires, or ctx is done.
func (f *DeviceFlow) Token(ctx context.Context, prompt Prompt) (string, error) {
	if prompt == nil {
		return "", errors.New("prompt is required")
	}

	code, err := f.conf.DeviceAuth(ctx)
	if err != nil {
		return "", fmt.Errorf("getting device code: %w", err)
	}

	if err := prompt(code); err != nil {
		return "", fmt.Errorf("prompting user: %w", err)
	}

	slog.Debug("polling for device token", "interval", code.Interval, "expiry", code.Expiry)

	tok, err := f.conf.DeviceAccessToken(ctx, code)
	if err != nil {
		return "", fmt.Errorf("getting token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("empty access token")
	}

	return tok.AccessToken, nil
}
