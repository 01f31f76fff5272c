package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limit is the steady rate and burst for one action.
type Limit struct {
	Every time.Duration
	Burst int
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter manages token buckets per key and action.
type RateLimiter struct {
	limits   map[string]Limit
	fallback Limit
	buckets  map[string]*entry
	mutex    sync.Mutex
	now      func() time.Time
}

// NewRateLimiter creates a limiter; actions missing from limits use fallback.
func NewRateLimiter(limits map[string]Limit, fallback Limit) *RateLimiter {
	return &RateLimiter{
		limits:   limits,
		fallback: fallback,
		buckets:  make(map[string]*entry),
		now:      time.Now,
	}
}

// PerMinute is a Limit of n events per minute with a burst of n.
func PerMinute(n int) Limit {
	if n <= 0 {
		n = 1
	}
	return Limit{Every: time.Minute / time.Duration(n), Burst: n}
}

// Allow consumes a token for key:action. When none is left it returns the
// time until the next token.
func (rl *RateLimiter) Allow(key, action string) (bool, time.Duration) {
	now := rl.now()
	bucketKey := key + ":" + action

	rl.mutex.Lock()
	e, exists := rl.buckets[bucketKey]
	if !exists {
		limit, ok := rl.limits[action]
		if !ok {
			limit = rl.fallback
		}
		e = &entry{limiter: rate.NewLimiter(rate.Every(limit.Every), limit.Burst)}
		rl.buckets[bucketKey] = e
	}
	e.lastSeen = now
	rl.mutex.Unlock()

	r := e.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Cleanup removes buckets idle for longer than idle.
func (rl *RateLimiter) Cleanup(idle time.Duration) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	for key, e := range rl.buckets {
		if now.Sub(e.lastSeen) > idle {
			delete(rl.buckets, key)
		}
	}
}

// Size returns the number of tracked buckets.
func (rl *RateLimiter) Size() int {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	return len(rl.buckets)
}

// StartCleanupRoutine prunes idle buckets every interval until stop is closed.
func (rl *RateLimiter) StartCleanupRoutine(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.Cleanup(time.Hour)
			case <-stop:
				return
			}
		}
	}()
}
