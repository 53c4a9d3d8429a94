package graphsource

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FedericoTs/LinkedinAnalytics/domain/network"
	"github.com/FedericoTs/LinkedinAnalytics/pkg/observability"
)

// TraceSource wraps a graph source with a span and fetch metrics per call
func TraceSource(next network.Source, name string, tracer trace.Tracer, metrics *observability.Collector) network.Source {
	return &tracedSource{inner: next, name: name, tracer: tracer, metrics: metrics}
}

type tracedSource struct {
	inner   network.Source
	name    string
	tracer  trace.Tracer
	metrics *observability.Collector
}

func (s *tracedSource) FetchNetwork(ctx context.Context, userID string) (network.RawNetwork, error) {
	ctx, span := s.tracer.Start(ctx, "graphsource.FetchNetwork",
		trace.WithAttributes(
			attribute.String("graph.source", s.name),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	raw, err := s.inner.FetchNetwork(ctx, userID)
	s.metrics.RecordGraphFetch(s.name, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return raw, err
	}

	span.SetAttributes(
		attribute.Int("graph.nodes", len(raw.Nodes)),
		attribute.Int("graph.edges", len(raw.Edges)),
	)
	return raw, nil
}
