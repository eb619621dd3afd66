package apiclient

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/omarluq/itemdesk/internal/credentials"
)

const tracerName = "github.com/omarluq/itemdesk/internal/apiclient"

// OutcomeSuccess is reported for requests that returned a payload.
const OutcomeSuccess = "success"

// Observer receives one call per backend request.
type Observer interface {
	ObserveRequest(method, op, outcome string, duration time.Duration)
}

// Outcome maps a request error to a low-cardinality label.
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	if f, ok := AsFailure(err); ok {
		return string(f.Kind)
	}
	return "error"
}

func startSpan(ctx context.Context, tracer trace.Tracer, op, method, path string, kind credentials.Kind) (context.Context, trace.Span) {
	return tracer.Start(ctx, "backend "+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
			attribute.String("itemdesk.credentials", string(kind)),
		),
	)
}

func endSpan(span trace.Span, err error) {
	defer span.End()

	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}

	if f, ok := AsFailure(err); ok {
		span.SetAttributes(
			attribute.String("itemdesk.failure", string(f.Kind)),
			attribute.Int("http.response.status_code", f.Status),
		)
	}
	span.SetStatus(codes.Error, err.Error())
}
