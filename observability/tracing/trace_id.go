package tracing

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// GetStartingTraceID returns the id that correlates the logs of one unit of
// work. When the context carries a recording span its trace id is used;
// otherwise a fresh uuid with a "man-" marker stands in, so log correlation
// keeps working even with tracing disabled.
func GetStartingTraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.TraceID().IsValid() {
		return sc.TraceID().String()
	}
	return "man-" + uuid.NewString()
}
