package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// maxBuckets caps the per-key map; reaching it triggers eviction of
	// buckets that have been idle past bucketIdleTTL. An evicted key simply
	// starts over with a full bucket.
	maxBuckets    = 10000
	bucketIdleTTL = 10 * time.Minute
)

// OpConfig describes one operation's token bucket: burst capacity and the
// steady refill rate. PerKey buckets are kept per caller key (principal id,
// username); otherwise a single global bucket serves the operation.
type OpConfig struct {
	Capacity     int
	RefillPerSec float64
	PerKey       bool
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter gates named operations. Refused calls fail immediately; there is
// no queuing.
type Limiter struct {
	ops map[string]OpConfig

	mu      sync.Mutex
	buckets map[string]*bucket
}

func NewLimiter(ops map[string]OpConfig) *Limiter {
	return &Limiter{
		ops:     ops,
		buckets: make(map[string]*bucket),
	}
}

// Allow consumes one token from the bucket for op (and key, when the op is
// keyed). Unknown operations are not limited.
func (l *Limiter) Allow(op, key string) bool {
	cfg, ok := l.ops[op]
	if !ok {
		return true
	}

	bucketKey := op
	if cfg.PerKey {
		bucketKey = op + ":" + key
	}

	now := time.Now()
	l.mu.Lock()
	b, ok := l.buckets[bucketKey]
	if !ok {
		if len(l.buckets) >= maxBuckets {
			l.evictIdle(now)
		}
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(cfg.RefillPerSec), cfg.Capacity)}
		l.buckets[bucketKey] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	return b.limiter.Allow()
}

// evictIdle drops buckets untouched for longer than the idle TTL. Caller
// holds mu.
func (l *Limiter) evictIdle(now time.Time) {
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) > bucketIdleTTL {
			delete(l.buckets, k)
		}
	}
}
