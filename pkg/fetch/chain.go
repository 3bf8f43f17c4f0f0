package fetch

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mchmarny/trustchain/pkg/net"
)

const (
	// DefaultChainURL is the Etherscan-compatible explorer API endpoint.
	DefaultChainURL = "https://api.etherscan.io/api"

	// ActivityWindow is how far back transactions are counted.
	ActivityWindow = 90 * 24 * time.Hour

	chainAccept  = "application/json"
	endBlockLast = "99999999"
)

// ChainSignal is the recent transaction activity of an address. Detail is
// always empty; the explorer response is never passed through.
type ChainSignal struct {
	TxCount uint64 `json:"tx_count" yaml:"txCount"`
	Detail  string `json:"detail" yaml:"detail"`
}

// Chain fetches transaction lists from an Etherscan-style explorer.
type Chain struct {
	client  net.Getter
	baseURL string
	apiKey  string
	now     func() time.Time
	meters  *meters
}

// NewChain returns a fetcher using client. An empty baseURL selects
// DefaultChainURL and a nil now selects time.Now.
func NewChain(client net.Getter, baseURL, apiKey string, now func() time.Time) *Chain {
	if baseURL == "" {
		baseURL = DefaultChainURL
	}
	if now == nil {
		now = time.Now
	}
	return &Chain{
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
		now:     now,
		meters:  newMeters(),
	}
}

func (c *Chain) txListURL(address string) string {
	q := url.Values{}
	q.Set("module", "account")
	q.Set("action", "txlist")
	q.Set("address", address)
	q.Set("startblock", "0")
	q.Set("endblock", endBlockLast)
	q.Set("sort", "asc")
	q.Set("apikey", c.apiKey)

	sep := "?"
	if strings.Contains(c.baseURL, "?") {
		sep = "&"
	}
	return c.baseURL + sep + q.Encode()
}

// Fetch counts the transactions of address within ActivityWindow of now.
func (c *Chain) Fetch(ctx context.Context, address string) ChainSignal {
	resp, err := c.client.Get(ctx, c.txListURL(address), map[string]string{
		"User-Agent": userAgent,
		"Accept":     chainAccept,
	})
	if err != nil {
		slog.Warn("chain request failed", "address", address, "error", err)
		c.meters.record(ctx, sourceChain, outcomeTransport)
		return ChainSignal{}
	}

	slog.Debug("chain request completed", "address", address, "status", resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		slog.Warn("chain request returned non-200 status", "address", address, "status", resp.StatusCode)
		c.meters.record(ctx, sourceChain, outcomeStatus)
		return ChainSignal{}
	}

	var body struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		slog.Warn("error decoding chain response", "address", address, "error", err)
		c.meters.record(ctx, sourceChain, outcomeParse)
		return ChainSignal{}
	}

	var txs []json.RawMessage
	if err := json.Unmarshal(body.Result, &txs); err != nil {
		// explorers report errors as a string result
		slog.Warn("chain response has no transaction list", "address", address)
		c.meters.record(ctx, sourceChain, outcomeParse)
		return ChainSignal{}
	}

	n := countRecent(txs, cutoff(c.now()))
	c.meters.record(ctx, sourceChain, outcomeOK)
	slog.Debug("chain data processed", "address", address, "recent", n, "total", len(txs))

	return ChainSignal{TxCount: n}
}

// cutoff returns the oldest counted timestamp in unix seconds, saturating at zero.
func cutoff(now time.Time) uint64 {
	sec := now.Unix()
	window := int64(ActivityWindow / time.Second)
	if sec <= window {
		return 0
	}
	return uint64(sec - window)
}

type chainTx struct {
	TimeStamp string `json:"timeStamp"`
}

func countRecent(txs []json.RawMessage, since uint64) uint64 {
	var n uint64
	for _, raw := range txs {
		var tx chainTx
		if err := json.Unmarshal(raw, &tx); err != nil {
			continue
		}
		ts, err := strconv.ParseUint(tx.TimeStamp, 10, 64)
		if err != nil {
			continue
		}
		if ts >= since {
			n++
		}
	}
	return n
}
