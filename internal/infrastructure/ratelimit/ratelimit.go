// Package ratelimit provides a per-key token bucket limiter for the
// request path.
package ratelimit

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
)

const shardCount = 64

// Config configures the limiter
type Config struct {
	// Enabled is the kill switch: a disabled limiter allows everything
	Enabled bool
	// Burst is the bucket capacity
	Burst int
	// RefillPerSecond is the continuous refill rate
	RefillPerSecond float64
}

// bucket holds one key's tokens. Tokens are a float so partial refill
// accumulates between accesses; refill is applied lazily on each access.
type bucket struct {
	tokens     float64
	lastRefill time.Time
}

type shard struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

// Limiter tracks independent token buckets by key, sharded so unrelated
// keys do not serialize. Key derivation (API key, client address) is the
// caller's concern. No fairness across keys.
type Limiter struct {
	cfg    Config
	clock  clockz.Clock
	shards [shardCount]shard
}

// New creates a limiter
func New(cfg Config, clock clockz.Clock) *Limiter {
	if clock == nil {
		clock = clockz.RealClock
	}
	l := &Limiter{cfg: cfg, clock: clock}
	for i := range l.shards {
		l.shards[i].buckets = make(map[string]*bucket)
	}
	return l
}

// TryConsume takes one token from the key's bucket. A denial is a normal
// outcome the caller branches on, not an error.
func (l *Limiter) TryConsume(key string) bool {
	if !l.cfg.Enabled {
		return true
	}

	sh := l.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	now := l.clock.Now()
	b, ok := sh.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.cfg.Burst), lastRefill: now}
		sh.buckets[key] = b
	} else {
		l.refill(b, now)
	}

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Remaining returns the whole tokens left for a key, refilling first
func (l *Limiter) Remaining(key string) int {
	if !l.cfg.Enabled {
		return l.cfg.Burst
	}

	sh := l.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	b, ok := sh.buckets[key]
	if !ok {
		return l.cfg.Burst
	}
	l.refill(b, l.clock.Now())
	return int(b.tokens)
}

// Sweep drops buckets idle longer than maxIdle. A dropped bucket
// reappears full on next access, which an idle key has earned anyway.
// Shards are locked one at a time, never the whole limiter.
func (l *Limiter) Sweep(maxIdle time.Duration) int {
	cutoff := l.clock.Now().Add(-maxIdle)
	removed := 0
	for i := range l.shards {
		sh := &l.shards[i]
		sh.mu.Lock()
		for key, b := range sh.buckets {
			if b.lastRefill.Before(cutoff) {
				delete(sh.buckets, key)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// refill tops up a bucket for elapsed time, capped at burst capacity.
// Caller holds the shard mutex.
func (l *Limiter) refill(b *bucket, now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	b.tokens += elapsed * l.cfg.RefillPerSecond
	if b.tokens > float64(l.cfg.Burst) {
		b.tokens = float64(l.cfg.Burst)
	}
	b.lastRefill = now
}

func (l *Limiter) shard(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &l.shards[h.Sum32()%shardCount]
}
