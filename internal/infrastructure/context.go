package infrastructure

import (
	"context"

	"github.com/google/uuid"
)

// GenerateTraceID mints a fresh UUID v4 trace identifier.
func GenerateTraceID() string {
	return uuid.New().String()
}

// EnsureTraceID returns a context guaranteed to carry a trace ID,
// minting one when the incoming context has none.
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) == "" {
		return WithTraceID(ctx, GenerateTraceID())
	}
	return ctx
}
