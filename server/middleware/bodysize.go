package middleware

import (
	"net/http"

	"github.com/kbukum/scribe/util"
)

const defaultMaxBodySize = 512 << 20

// BodySizeLimit caps request bodies at a size such as "512MB". Reads past
// the cap fail with *http.MaxBytesError, which the API maps to 413.
func BodySizeLimit(maxSize string) Middleware {
	limit := int64(defaultMaxBodySize)
	if n, err := util.ParseSize(maxSize); err == nil && n > 0 {
		limit = n
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				w.Header().Set("Connection", "close")
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
