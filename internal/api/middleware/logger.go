package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// slowRequestThreshold flags requests drifting toward the per-request
// budget; the recommendation pipeline should finish well under it.
const slowRequestThreshold = 10 * time.Second

// Logger returns structured request logging middleware. Escalation:
// Info → Warn for 4xx and slow requests, Error for 5xx.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		slow := duration >= slowRequestThreshold

		event := log.Info()
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400 || slow:
			event = log.Warn()
		}
		if slow {
			event = event.Bool("slow", true)
		}

		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", chimw.GetReqID(r.Context())).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", duration).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}
