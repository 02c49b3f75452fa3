// Package otel holds small tracing helpers shared by the manifest server packages.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Attribute keys for business context in spans.
const (
	AttrRepoOwner    = attribute.Key("repository.owner")
	AttrRepoName     = attribute.Key("repository.name")
	AttrProductPath  = attribute.Key("product.path")
	AttrProductName  = attribute.Key("product.name")
	AttrArchitecture = attribute.Key("client.architecture")
	AttrReleaseCount = attribute.Key("release.count")
	AttrReleaseTag   = attribute.Key("release.tag")
)

// StartSpan starts a span when tracer is non-nil and otherwise returns a no-op span.
// The no-op span never ends a parent span that is already in ctx.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, noop.Span{}
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records err on span and marks the span failed. Nil spans and errors are ignored.
// The status text stays generic; details live in the recorded error event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
