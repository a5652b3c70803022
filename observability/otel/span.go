package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of ledger spans.
const TracerName = "relpchain"

// Span attributes recorded on every ledger call.
const (
	OpKey    = attribute.Key("relp.op")
	BlockKey = attribute.Key("relp.block")
)

// Tracer returns the ledger tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// StartCall opens the span of one ledger call executed at block.
func StartCall(ctx context.Context, op string, block uint64) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "relp."+op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(OpKey.String(op), BlockKey.Int64(int64(block))))
}

// EndCall records the outcome of the call and ends span.
func EndCall(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
