package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// probe endpoints are never limited
var unlimitedPaths = map[string]bool{
	"/health":  true,
	"/ready":   true,
	"/live":    true,
	"/metrics": true,
}

// RateLimitMiddleware limits requests per client IP per minute. A limit of 0
// disables it.
func RateLimitMiddleware(requestsPerMin int) func(http.Handler) http.Handler {
	if requestsPerMin <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	limiter := httprate.Limit(
		requestsPerMin,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"kind":"rate_limited","message":"rate limit exceeded, please try again later"}}`))
		}),
	)

	return func(next http.Handler) http.Handler {
		limited := limiter(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if unlimitedPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}
