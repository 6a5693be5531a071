package logging

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// quietPaths are polled by health checks and scrapers and not logged
var quietPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

var recorderPool = sync.Pool{
	New: func() any { return &responseRecorder{} },
}

type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *responseRecorder) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseRecorder) Write(data []byte) (int, error) {
	n, err := w.ResponseWriter.Write(data)
	w.bytes += n
	return n, err
}

// Middleware logs one structured line per request. Server errors are logged
// at error level, client errors at warn, everything else at info.
func Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, quiet := quietPaths[r.URL.Path]; quiet {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := recorderPool.Get().(*responseRecorder)
			rec.ResponseWriter, rec.status, rec.bytes = w, http.StatusOK, 0
			defer func() {
				rec.ResponseWriter = nil
				recorderPool.Put(rec)
			}()

			next.ServeHTTP(rec, r)

			requestID := middleware.GetReqID(r.Context())
			if requestID == "" {
				requestID = "unknown"
			}

			attrs := []any{
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
			}
			if r.URL.RawQuery != "" {
				attrs = append(attrs, "query", r.URL.RawQuery)
			}
			attrs = append(attrs,
				"remote_addr", r.RemoteAddr,
				"status_code", rec.status,
				"bytes_written", rec.bytes,
				"duration_ms", time.Since(start).Milliseconds(),
			)

			level := slog.LevelInfo
			switch {
			case rec.status >= 500:
				level = slog.LevelError
			case rec.status >= 400:
				level = slog.LevelWarn
			}
			logger.Log(r.Context(), level, "HTTP request", attrs...)
		})
	}
}
