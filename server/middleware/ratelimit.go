package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/scribe/auth/authctx"
	apperrors "github.com/kbukum/scribe/errors"
	"github.com/kbukum/scribe/resilience"
)

// idleAfter is how long a client's bucket survives without requests.
const idleAfter = 10 * time.Minute

// RateLimitConfig configures per-client request pacing.
type RateLimitConfig struct {
	// RequestsPerMinute is both the sustained rate and the burst. Default 60.
	RequestsPerMinute int
	// KeyFunc names the client. Default SubjectKey.
	KeyFunc func(*gin.Context) string
}

// RateLimit answers 429 once a client has used up its token bucket.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = SubjectKey
	}
	b := &buckets{
		cfg: resilience.RateLimiterConfig{
			Rate:  float64(cfg.RequestsPerMinute) / 60,
			Burst: cfg.RequestsPerMinute,
		},
		byKey: make(map[string]*bucket),
		now:   time.Now,
	}
	retryAfter := strconv.Itoa(max(1, 60/cfg.RequestsPerMinute))
	return func(c *gin.Context) {
		if !b.get(cfg.KeyFunc(c)).Allow() {
			c.Header("Retry-After", retryAfter)
			abort(c, apperrors.RateLimited())
			return
		}
		c.Next()
	}
}

// IPBasedKey keys on the client IP.
func IPBasedKey(c *gin.Context) string { return c.ClientIP() }

// SubjectKey keys on the token subject, falling back to client IP.
func SubjectKey(c *gin.Context) string {
	if sub := authctx.Subject(c.Request.Context()); sub != "" {
		return "sub:" + sub
	}
	return c.ClientIP()
}

type bucket struct {
	*resilience.RateLimiter
	seen time.Time
}

type buckets struct {
	cfg   resilience.RateLimiterConfig
	now   func() time.Time
	mu    sync.Mutex
	byKey map[string]*bucket
	swept time.Time
}

func (b *buckets) get(key string) *resilience.RateLimiter {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if now.Sub(b.swept) > idleAfter {
		for k, v := range b.byKey {
			if now.Sub(v.seen) > idleAfter {
				delete(b.byKey, k)
			}
		}
		b.swept = now
	}
	e, ok := b.byKey[key]
	if !ok {
		e = &bucket{RateLimiter: resilience.NewRateLimiter(b.cfg)}
		b.byKey[key] = e
	}
	e.seen = now
	return e.RateLimiter
}
