package authclient

import "context"

type requestIDContextKey struct{}

// WithRequestID attaches a correlation identifier to ctx. The HTTP
// backend forwards it as the X-Request-ID header and the audit trail
// records it; when absent, the backend generates one per call.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	requestID, _ := ctx.Value(requestIDContextKey{}).(string)
	return requestID
}

// RequestIDFromContext exposes the attached correlation identifier to
// backend implementations outside this package.
func RequestIDFromContext(ctx context.Context) string {
	return requestIDFromContext(ctx)
}
