package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/railcheck/railcheck/internal/common/httpx"
)

// SetTimeout enforces a timeout for request handling. If the request exceeds
// the given duration a timeout error response is sent, provided the handler
// has not already written headers.
func SetTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			rw := httpx.NewResponseWriter(w)
			r = r.WithContext(ctx)

			rw.Header().Set("X-Railcheck-Timeout", timeout.String())

			done := make(chan struct{})
			go func() {
				defer func() {
					if r := recover(); r != nil {
						log.Ctx(ctx).Error().Msgf("panic in handler: %v", r)
					}
					close(done)
				}()
				next.ServeHTTP(rw, r)
			}()

			select {
			case <-done:
				return
			case <-ctx.Done():
				if !rw.Written() {
					httpx.ErrRequestTimeout().Send(w)
				}
				log.Ctx(ctx).Error().Msgf("request timed out")
				return
			}
		})
	}
}
