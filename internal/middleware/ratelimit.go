package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Buckets untouched for limiterIdle are dropped, checked at most once per
// sweepInterval. A dropped caller gets a fresh, full bucket on return.
const (
	limiterIdle   = 10 * time.Minute
	sweepInterval = time.Minute
)

// RateLimit applies a token bucket per caller. Callers are identified by the
// API key stored by APIKeyAuth, or by client IP when auth is disabled.
// Each chat message costs two completion calls upstream, so this is the
// main guard against runaway spend.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	limiters := newLimiterSet(rps, burst, limiterIdle, time.Now)

	return func(c *gin.Context) {
		caller := "ip:" + c.ClientIP()
		if key := c.GetString(ContextKeyAPIKey); key != "" {
			caller = "key:" + key
		}

		if !limiters.get(caller).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet holds one limiter per caller and forgets idle callers.
type limiterSet struct {
	mu        sync.Mutex
	rps       rate.Limit
	burst     int
	idle      time.Duration
	now       func() time.Time
	lastSweep time.Time
	visitors  map[string]*visitor
}

func newLimiterSet(rps float64, burst int, idle time.Duration, now func() time.Time) *limiterSet {
	return &limiterSet{
		rps:       rate.Limit(rps),
		burst:     burst,
		idle:      idle,
		now:       now,
		lastSweep: now(),
		visitors:  make(map[string]*visitor),
	}
}

func (s *limiterSet) get(caller string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= sweepInterval {
		for k, v := range s.visitors {
			if now.Sub(v.lastSeen) > s.idle {
				delete(s.visitors, k)
			}
		}
		s.lastSweep = now
	}

	v, ok := s.visitors[caller]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(s.rps, s.burst)}
		s.visitors[caller] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (s *limiterSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visitors)
}
