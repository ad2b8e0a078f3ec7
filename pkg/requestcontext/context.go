// Package requestcontext provides HTTP-independent accessors for
// request-scoped values. Middleware sets them; services only read, so the
// domain packages never import net/http.
package requestcontext

import "context"

type (
	requestIDKey struct{}
	analystIDKey struct{}
)

// WithRequestID attaches a correlation ID for the request.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the correlation ID, or "" when unset.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithAnalystID attaches the authenticated analyst identity.
func WithAnalystID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, analystIDKey{}, id)
}

// AnalystID returns the authenticated analyst identity, or "" when unset.
func AnalystID(ctx context.Context) string {
	if v, ok := ctx.Value(analystIDKey{}).(string); ok {
		return v
	}
	return ""
}
