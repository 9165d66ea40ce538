// Package otel provides OpenTelemetry span helpers shared by the fetch pipeline and the platform service.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on aggregator spans
const (
	AttrSourceName   = attribute.Key("source.name")
	AttrSourceCount  = attribute.Key("source.count")
	AttrResultCount  = attribute.Key("result.count")
	AttrAttempts     = attribute.Key("fetch.attempts")
	AttrFailureCause = attribute.Key("sync.reason")
)

// StartSpan starts a new span if the tracer is non-nil, otherwise returns a no-op span.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records an error on a span and marks the span as failed.
// The status description stays generic; upstream URLs only appear in the span event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
