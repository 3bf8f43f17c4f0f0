package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v83/github"
	"github.com/mchmarny/trustchain/pkg/net"
)

const (
	// DefaultGitHubURL is the GitHub REST API root.
	DefaultGitHubURL = "https://api.github.com"

	userAgent         = "trustchain"
	githubAccept      = "application/vnd.github.v3+json"
	pushEventType     = "PushEvent"
	userEventsPathFmt = "%s/users/%s/events/public"
)

// GitHubSignal is the push activity found in a user's public events.
type GitHubSignal struct {
	Commits    float64 `json:"commits" yaml:"commits"`
	Stars      float64 `json:"stars" yaml:"stars"`
	RecentRepo string  `json:"recent_repo" yaml:"recentRepo"`
	RecentDate string  `json:"recent_date" yaml:"recentDate"`
}

// GitHub fetches push activity from the public events API.
type GitHub struct {
	client  net.Getter
	baseURL string
	meters  *meters
}

// NewGitHub returns a fetcher using client. An empty baseURL selects DefaultGitHubURL.
func NewGitHub(client net.Getter, baseURL string) *GitHub {
	if baseURL == "" {
		baseURL = DefaultGitHubURL
	}
	return &GitHub{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		meters:  newMeters(),
	}
}

// Fetch counts the commits pushed by handle across its public PushEvents.
// Stars is always zero. RecentRepo and RecentDate describe the first
// PushEvent in the response, which GitHub orders newest first.
func (g *GitHub) Fetch(ctx context.Context, handle string) GitHubSignal {
	u := fmt.Sprintf(userEventsPathFmt, g.baseURL, url.PathEscape(handle))

	resp, err := g.client.Get(ctx, u, map[string]string{
		"User-Agent": userAgent,
		"Accept":     githubAccept,
	})
	if err != nil {
		slog.Warn("github request failed", "handle", handle, "error", err)
		g.meters.record(ctx, sourceGitHub, outcomeTransport)
		return GitHubSignal{}
	}

	slog.Debug("github request completed", "handle", handle, "status", resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		slog.Warn("github request returned non-200 status", "handle", handle, "status", resp.StatusCode)
		g.meters.record(ctx, sourceGitHub, outcomeStatus)
		return GitHubSignal{}
	}

	var events []json.RawMessage
	if err := json.Unmarshal(resp.Body, &events); err != nil {
		slog.Warn("error decoding github events", "handle", handle, "error", err)
		g.meters.record(ctx, sourceGitHub, outcomeParse)
		return GitHubSignal{}
	}

	s := parsePushEvents(events)
	g.meters.record(ctx, sourceGitHub, outcomeOK)
	slog.Debug("github data processed", "handle", handle, "commits", s.Commits, "repo", s.RecentRepo)

	return s
}

type pushPayload struct {
	Commits []json.RawMessage `json:"commits"`
}

// eventTime keeps created_at as sent; github.Timestamp drops the offset.
type eventTime struct {
	CreatedAt string `json:"created_at"`
}

func parsePushEvents(events []json.RawMessage) GitHubSignal {
	var s GitHubSignal
	found := false

	for _, raw := range events {
		var e github.Event
		if err := json.Unmarshal(raw, &e); err != nil {
			slog.Debug("error decoding github event", "error", err)
			continue
		}
		if e.GetType() != pushEventType {
			continue
		}

		if !found {
			found = true
			s.RecentRepo = e.GetRepo().GetName()

			var t eventTime
			if err := json.Unmarshal(raw, &t); err == nil {
				s.RecentDate = t.CreatedAt
			}
		}

		if e.RawPayload == nil {
			continue
		}

		var p pushPayload
		if err := json.Unmarshal(*e.RawPayload, &p); err != nil {
			slog.Debug("error decoding push payload", "id", e.GetID(), "error", err)
			continue
		}
		s.Commits += float64(len(p.Commits))
	}

	return s
}
