package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/scribe/logger"
)

// probePaths are polled by orchestrators and scrapers and never logged.
var probePaths = []string{"/health", "/ready", "/alive", "/metrics"}

// RequestLogger logs one line per request. 5xx responses log at error, 4xx
// at warn and the rest at debug.
func RequestLogger(log *logger.Logger) Middleware {
	if log == nil {
		log = logger.Get("http")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isProbe(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			rw := newRecordingWriter(w)
			next.ServeHTTP(rw, r)

			status := rw.Status()
			fields := logger.Fields(
				"method", r.Method,
				"path", r.URL.Path,
				logger.FieldStatus, status,
				"bytes_in", r.ContentLength,
				"bytes_out", rw.bytes,
				logger.FieldDuration, time.Since(start).Milliseconds(),
			)
			if id := r.Header.Get(RequestIDHeader); id != "" {
				fields[logger.FieldRequestID] = id
			}
			switch {
			case status >= http.StatusInternalServerError:
				log.Error("request failed", fields)
			case status >= http.StatusBadRequest:
				log.Warn("request rejected", fields)
			default:
				log.Debug("request served", fields)
			}
		})
	}
}

func isProbe(path string) bool {
	for _, p := range probePaths {
		if path == p || strings.HasSuffix(path, p) && strings.HasPrefix(path, "/api/") {
			return true
		}
	}
	return false
}
