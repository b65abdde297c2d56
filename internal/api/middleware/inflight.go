package middleware

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

// InflightLimiter rejects requests beyond a global concurrency cap.
// There is no queue: a full service answers 503 immediately so callers
// can back off or route elsewhere.
func InflightLimiter(max int) func(http.Handler) http.Handler {
	slots := make(chan struct{}, max)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case slots <- struct{}{}:
				defer func() { <-slots }()
				next.ServeHTTP(w, r)
			default:
				log.Warn().
					Str("path", r.URL.Path).
					Int("max_inflight", max).
					Msg("Request rejected, in-flight limit reached")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"error": "service at capacity, retry later"}`))
			}
		})
	}
}
