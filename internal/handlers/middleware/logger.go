package middleware

import (
	"net/http"
	"time"
)

type logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Response status and size as seen by the client
type responseStats struct {
	status int
	size   int
}

type statsWriter struct {
	http.ResponseWriter
	stats responseStats
}

func (w *statsWriter) Write(p []byte) (int, error) {
	size, err := w.ResponseWriter.Write(p)
	w.stats.size += size
	return size, err
}

func (w *statsWriter) WriteHeader(statusCode int) {
	w.ResponseWriter.WriteHeader(statusCode)
	w.stats.status = statusCode
}

// LoggerMiddleware writes access log line per request
// Server errors are logged with warn level
func LoggerMiddleware(l logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			sw := &statsWriter{
				ResponseWriter: w,
				stats:          responseStats{status: http.StatusOK},
			}

			next.ServeHTTP(sw, r)

			log := l.Info
			if sw.stats.status >= http.StatusInternalServerError {
				log = l.Warn
			}
			log(
				"got HTTP request",
				"method", r.Method,
				"uri", r.RequestURI,
				"duration", time.Since(start),
				"status", sw.stats.status,
				"size", sw.stats.size,
			)
		})
	}
}
