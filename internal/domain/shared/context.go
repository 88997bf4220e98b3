package shared

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	commandIDKey     contextKey = "command_id"
)

// WithCorrelationID stores the request correlation id for audit entries and logs
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationID returns the correlation id stored in ctx, or ""
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

// WithCommandID marks ctx as executing the given ledger command. The audit
// entry written by the engine takes the command id as its own id.
func WithCommandID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, commandIDKey, id)
}

// CommandID returns the command id stored in ctx
func CommandID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(commandIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}
