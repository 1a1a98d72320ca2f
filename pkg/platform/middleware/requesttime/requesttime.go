// Package requesttime pins a single "now" for the lifetime of a request so
// submission timestamps and log lines agree.
package requesttime

import (
	"net/http"
	"time"

	"regdesk/pkg/requestcontext"
)

// Middleware stores the request start time on the context.
func Middleware(next http.Handler) http.Handler {
	return MiddlewareWithClock(time.Now)(next)
}

// MiddlewareWithClock is Middleware with an injectable clock.
func MiddlewareWithClock(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
