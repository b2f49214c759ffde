package logtrace

import (
	"context"
)

// RequestIdFromContext extracts the request ID from the context.
// Returns an empty string if the context is nil or holds no request ID.
func RequestIdFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	r, ok := ctx.Value("requestId").(string)
	if !ok {
		return ""
	}
	return r
}

// IsTraceEnabled reports whether route tracing is enabled.
func IsTraceEnabled() bool {
	return false
}
