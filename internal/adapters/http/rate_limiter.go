package http

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type limitKey struct {
	client string
	route  string
}

// RateLimiter caps how often one client may hit one route within a sliding window.
type RateLimiter struct {
	mu     sync.Mutex
	hits   map[limitKey][]time.Time
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		hits:   make(map[limitKey][]time.Time),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Take records a hit for k. When the window is full nothing is recorded and
// the wait until the oldest hit expires is returned.
func (rl *RateLimiter) Take(k limitKey) (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)

	// hits are appended in time order, so expired ones form a prefix
	hits := rl.hits[k]
	n := 0
	for n < len(hits) && !hits[n].After(cutoff) {
		n++
	}
	hits = hits[n:]

	if len(hits) >= rl.limit {
		rl.hits[k] = hits
		return hits[0].Sub(cutoff), false
	}
	rl.hits[k] = append(hits, now)
	return 0, true
}

// Middleware rejects over-limit requests with 429 and a Retry-After header.
// Requests are keyed by client ip and route pattern.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		k := limitKey{client: c.ClientIP(), route: c.FullPath()}
		wait, ok := rl.Take(k)
		if !ok {
			retry := int(math.Ceil(wait.Seconds()))
			log.Warn().Str("module", "adapters.http").
				Str("client_ip", k.client).
				Str("route", k.route).
				Int("retry_after", retry).
				Msg("rate limited")
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: "too many requests"})
			return
		}
		c.Next()
	}
}
