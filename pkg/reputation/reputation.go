// Package reputation sequences signal fetches, scoring and caching.
package reputation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mchmarny/trustchain/pkg/cache"
	"github.com/mchmarny/trustchain/pkg/fetch"
	"github.com/mchmarny/trustchain/pkg/identity"
	"github.com/mchmarny/trustchain/pkg/score"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

const (
	meterName  = "github.com/mchmarny/trustchain/pkg/reputation"
	messageFmt = "Reputation Score: %.2f (0-100 scale). Most recent repo: %s on %s. %d commits found. DeFi transactions: %d."
)

// GitHubFetcher retrieves push activity for a handle.
type GitHubFetcher interface {
	Fetch(ctx context.Context, handle string) fetch.GitHubSignal
}

// ChainFetcher retrieves transaction activity for an address.
type ChainFetcher interface {
	Fetch(ctx context.Context, address string) fetch.ChainSignal
}

// Result is the outcome of a single score update.
type Result struct {
	Identity identity.Identity  `json:"identity" yaml:"identity"`
	Score    float64            `json:"score" yaml:"score"`
	Message  string             `json:"message" yaml:"message"`
	Factors  score.Factors      `json:"factors" yaml:"factors"`
	GitHub   fetch.GitHubSignal `json:"github" yaml:"github"`
	Chain    fetch.ChainSignal  `json:"chain" yaml:"chain"`
	Cached   bool               `json:"cached" yaml:"cached"`
}

// Service computes and caches reputation scores.
type Service struct {
	github         GitHubFetcher
	chain          ChainFetcher
	cache          *cache.Reputation
	calc           *score.Calculator
	strictIdentity bool
	updates        metric.Int64Counter
}

// Option configures a Service.
type Option func(*Service)

// WithStrictIdentity stops scores for unparseable addresses from being
// cached under identity.Anonymous, where unrelated callers would share one
// slot. The score is still computed and returned.
func WithStrictIdentity() Option {
	return func(s *Service) {
		s.strictIdentity = true
	}
}

// WithCalculator replaces the default equal-weight calculator.
func WithCalculator(c *score.Calculator) Option {
	return func(s *Service) {
		if c != nil {
			s.calc = c
		}
	}
}

// NewService wires the fetchers to the cache.
func NewService(gh GitHubFetcher, ch ChainFetcher, c *cache.Reputation, opts ...Option) (*Service, error) {
	if gh == nil || ch == nil {
		return nil, errors.New("github and chain fetchers are required")
	}
	if c == nil {
		return nil, errors.New("cache is required")
	}

	s := &Service{
		github: gh,
		chain:  ch,
		cache:  c,
		calc:   score.NewCalculator(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.calc.Validate(); err != nil {
		return nil, fmt.Errorf("validating calculator: %w", err)
	}

	updates, err := otel.Meter(meterName).Int64Counter("trustchain_reputation_updates_total",
		metric.WithDescription("Reputation scores computed and cached"))
	if err != nil {
		slog.Debug("error creating update counter", "error", err)
	}
	s.updates = updates

	return s, nil
}

// FetchGitHubSignal returns the push activity of handle.
func (s *Service) FetchGitHubSignal(ctx context.Context, handle string) fetch.GitHubSignal {
	return s.github.Fetch(ctx, handle)
}

// FetchChainSignal returns the recent transaction activity of address.
func (s *Service) FetchChainSignal(ctx context.Context, address string) fetch.ChainSignal {
	return s.chain.Fetch(ctx, address)
}

// GetReputation returns the cached score for id, or 0 if it was never scored.
func (s *Service) GetReputation(id identity.Identity) float64 {
	return s.cache.Get(id)
}

// LookupReputation returns the cached score for id and whether id was ever
// scored, telling an unknown identity apart from a score of 0.
func (s *Service) LookupReputation(id identity.Identity) (float64, bool) {
	return s.cache.Lookup(id)
}

// resolveIdentity returns the cache key for address and whether the score
// may be written under it.
func (s *Service) resolveIdentity(address string) (identity.Identity, bool) {
	id, err := identity.Parse(address)
	if err == nil {
		return id, true
	}
	if s.strictIdentity {
		slog.Warn("unparseable identity, score not cached", "address", address, "error", err)
		return "", false
	}
	slog.Warn("unparseable identity, caching under anonymous", "address", address, "error", err)
	return identity.Anonymous, true
}

// UpdateReputationScore fetches both signals for handle and address,
// scores them and overwrites the cached score for the address identity.
// Upstream failures only lower the score. An address that does not parse
// is cached under identity.Anonymous, or not at all with WithStrictIdentity.
func (s *Service) UpdateReputationScore(ctx context.Context, handle, address string) *Result {
	address = strings.TrimSpace(address)
	id, cacheable := s.resolveIdentity(address)

	slog.Debug("starting reputation score calculation", "handle", handle, "identity", id)

	var gs fetch.GitHubSignal
	var cs fetch.ChainSignal

	// fetchers degrade to zero signals, so the join cannot fail
	var g errgroup.Group
	g.Go(func() error {
		gs = s.github.Fetch(ctx, handle)
		return nil
	})
	g.Go(func() error {
		cs = s.chain.Fetch(ctx, address)
		return nil
	})
	_ = g.Wait()

	f := score.Factors{
		Pushes: score.NormalizePushes(gs.Commits),
		Tx:     score.NormalizeTx(cs.TxCount),
	}
	slog.Debug("normalized activity", "github", f.Pushes, "chain", f.Tx)

	rep := s.calc.Calculate(f)
	msg := fmt.Sprintf(messageFmt, rep, gs.RecentRepo, gs.RecentDate, uint64(gs.Commits), cs.TxCount)

	if cacheable {
		s.cache.Set(id, rep)
		if s.updates != nil {
			s.updates.Add(ctx, 1)
		}
		slog.Info("reputation score cached", "identity", id, "score", rep)
	}

	return &Result{
		Identity: id,
		Score:    rep,
		Message:  msg,
		Factors:  f,
		GitHub:   gs,
		Chain:    cs,
		Cached:   cacheable,
	}
}
