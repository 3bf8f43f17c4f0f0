package fetch

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/mchmarny/trustchain/pkg/fetch"

	sourceGitHub = "github"
	sourceChain  = "chain"

	outcomeOK        = "ok"
	outcomeStatus    = "status"
	outcomeTransport = "transport"
	outcomeParse     = "parse"
)

type meters struct {
	fetches metric.Int64Counter
}

func newMeters() *meters {
	fetches, err := otel.Meter(meterName).Int64Counter("trustchain_fetch_total",
		metric.WithDescription("External signal fetches by source and outcome"))
	if err != nil {
		slog.Debug("error creating fetch counter", "error", err)
	}
	return &meters{fetches: fetches}
}

func (m *meters) record(ctx context.Context, source, outcome string) {
	if m == nil || m.fetches == nil {
		return
	}
	m.fetches.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("outcome", outcome),
	))
}
