package instrumentation

import (
	"context"
	"fmt"

	"github.com/Konsultn-Engineering/sqlfrag/cache"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type Instrumentation struct {
	Tracer trace.Tracer
	Meter  metric.Meter
}

// Store traces and counts the lookups of a wrapped cache.Store.
type Store struct {
	inner   cache.Store
	tracer  trace.Tracer
	lookups metric.Int64Counter
}

const (
	keyAttributeKey  = "cache.key"
	hitAttributeKey  = "cache.hit"
	sizeAttributeKey = "cache.value_size"

	lookupsMetricName = "sqlfrag.cache.lookups"
)

// NewStore wraps inner. A nil instrumentation returns inner unchanged.
func NewStore(inner cache.Store, instrumentation *Instrumentation) (cache.Store, error) {
	if instrumentation == nil {
		return inner, nil
	}

	s := &Store{
		inner:  inner,
		tracer: instrumentation.Tracer,
	}
	if instrumentation.Meter != nil {
		var err error
		s.lookups, err = instrumentation.Meter.Int64Counter(lookupsMetricName,
			metric.WithUnit("{lookup}"),
			metric.WithDescription("Statement cache lookups by outcome"))
		if err != nil {
			return nil, fmt.Errorf("initialising cache store metrics: %w", err)
		}
	}
	return s, nil
}

func (s *Store) Get(ctx context.Context, key string) (value []byte, found bool, err error) {
	ctx, span := startSpan(ctx, s.tracer, "cache.Get", trace.WithAttributes(attribute.String(keyAttributeKey, key)))
	defer func() {
		if span != nil {
			span.SetAttributes(attribute.Bool(hitAttributeKey, found))
		}
		closeSpan(span, err)
	}()

	value, found, err = s.inner.Get(ctx, key)
	if s.lookups != nil {
		s.lookups.Add(ctx, 1, metric.WithAttributes(attribute.Bool(hitAttributeKey, found)))
	}
	return value, found, err
}

func (s *Store) Set(ctx context.Context, key string, value []byte) (err error) {
	ctx, span := startSpan(ctx, s.tracer, "cache.Set", trace.WithAttributes(
		attribute.String(keyAttributeKey, key),
		attribute.Int(sizeAttributeKey, len(value)),
	))
	defer closeSpan(span, err)

	return s.inner.Set(ctx, key, value)
}

func startSpan(ctx context.Context, tracer trace.Tracer, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, nil
	}
	return tracer.Start(ctx, name, opts...)
}

// closeSpan records err on the span and ends it. Nil spans are ignored.
func closeSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "")
	}
	span.End()
}
