package log

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/product-catalog/pkg/correlationid"
)

type productIDKey struct{}

// WithProductID returns a copy of ctx whose log records carry id_product.
func WithProductID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, productIDKey{}, id)
}

func productIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(productIDKey{}).(int64)
	return id, ok
}

var _ slog.Handler = catalogHandler{}

// catalogHandler adds request scoped attributes found in the context:
// correlation id, trace and span ids, and the product being worked on.
type catalogHandler struct {
	next slog.Handler
}

func (h catalogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h catalogHandler) Handle(ctx context.Context, r slog.Record) error {
	if correlationID, ok := correlationid.FromContext(ctx); ok {
		r.AddAttrs(slog.String("correlation_id", correlationID))
	}

	if id, ok := productIDFromContext(ctx); ok {
		r.AddAttrs(slog.Int64("id_product", id))
	}

	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}

	return h.next.Handle(ctx, r)
}

func (h catalogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return catalogHandler{next: h.next.WithAttrs(attrs)}
}

func (h catalogHandler) WithGroup(name string) slog.Handler {
	return catalogHandler{next: h.next.WithGroup(name)}
}
