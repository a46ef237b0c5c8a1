package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"loanmvp/internal/shared/server/respond"
)

// DefaultRateGroup applies to every request not claimed by a prefix group.
const DefaultRateGroup = "DEFAULT"

const (
	pruneEvery    = 1024
	bucketIdleTTL = 15 * time.Minute
)

// RateLimitRule is a token bucket: PerSecond refill, Burst capacity.
type RateLimitRule struct {
	PerSecond float64
	Burst     int
}

// RateLimitConfig maps route groups to rules. GroupFor returning "" selects DefaultRateGroup.
// Groups listed in ByIP are keyed by client IP for every caller.
type RateLimitConfig struct {
	Rules    map[string]RateLimitRule
	GroupFor func(*gin.Context) string
	ByIP     []string
	Limiter  *RateLimiter
}

// RateLimiter keeps one bucket per principal and group.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rateBucket
	checks  int
	now     func() time.Time
}

type rateBucket struct {
	tokens float64
	seen   time.Time
}

func NewRateLimiter(now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{buckets: map[string]*rateBucket{}, now: now}
}

// GroupByPrefix returns a GroupFor func matching the longest registered path prefix.
func GroupByPrefix(prefixes map[string]string) func(*gin.Context) string {
	return func(c *gin.Context) string {
		path := c.Request.URL.Path
		best, group := 0, ""
		for prefix, g := range prefixes {
			if len(prefix) > best && strings.HasPrefix(path, prefix) {
				best, group = len(prefix), g
			}
		}
		return group
	}
}

// RateLimit throttles signed-in users by id and everyone else by client IP.
// Guest ids are chosen by the client, so they never name a bucket.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = NewRateLimiter(nil)
	}
	byIP := make(map[string]bool, len(cfg.ByIP))
	for _, g := range cfg.ByIP {
		byIP[g] = true
	}
	return func(c *gin.Context) {
		group := DefaultRateGroup
		if cfg.GroupFor != nil {
			if g := strings.TrimSpace(cfg.GroupFor(c)); g != "" {
				group = g
			}
		}
		rule, ok := cfg.Rules[group]
		if !ok {
			c.Next()
			return
		}

		principal := strings.TrimSpace(UserIDFromContext(c))
		if principal == "" || IsGuest(c) || byIP[group] {
			principal = "ip:" + c.ClientIP()
		}
		allowed, wait := limiter.Allow(principal+"|"+group, rule)
		if allowed {
			c.Next()
			return
		}

		waitMs := max(int(wait/time.Millisecond), 1)
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(float64(waitMs)/1000))))
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", "Too many requests, slow down.", gin.H{
			"group":          group,
			"retry_after_ms": waitMs,
		})
	}
}

// Allow spends one token from key's bucket, or reports how long until one is available.
func (l *RateLimiter) Allow(key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil || rule.PerSecond <= 0 || rule.Burst <= 0 {
		return true, 0
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.checks++
	if l.checks%pruneEvery == 0 {
		l.pruneLocked(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &rateBucket{tokens: float64(rule.Burst), seen: now}
		l.buckets[key] = b
	}
	if elapsed := now.Sub(b.seen).Seconds(); elapsed > 0 {
		b.tokens = math.Min(float64(rule.Burst), b.tokens+elapsed*rule.PerSecond)
		b.seen = now
	}
	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	wait := (1 - b.tokens) / rule.PerSecond
	return false, time.Duration(math.Ceil(wait*1000)) * time.Millisecond
}

// Len reports how many buckets are tracked.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *RateLimiter) pruneLocked(now time.Time) {
	for k, b := range l.buckets {
		if now.Sub(b.seen) > bucketIdleTTL {
			delete(l.buckets, k)
		}
	}
}
