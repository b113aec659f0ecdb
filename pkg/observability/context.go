package observability

import "context"

// CorrelationIDKey is the log attribute key for correlation IDs.
const CorrelationIDKey = "correlation_id"

type correlationIDCtxKey struct{}

// WithCorrelationID stores a correlation ID in the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDCtxKey{}, id)
}

// CorrelationIDFromContext returns the correlation ID, or "" when absent.
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDCtxKey{}).(string); ok {
		return id
	}
	return ""
}
