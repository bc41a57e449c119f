// Package window provides keyed count+sum counters over a rolling time
// window with lazy reset on access.
package window

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zoobzio/clockz"

	"credit-risk-core/internal/domain/risk"
)

const shardCount = 64

// counter is one keyed window. windowStart re-anchors lazily: the first
// access after the window elapses resets count and sum before applying.
type counter struct {
	count       int64
	sum         decimal.Decimal
	windowStart time.Time
	lastAccess  time.Time
}

type shard struct {
	mu       sync.Mutex
	counters map[string]*counter
}

// Store is a sharded in-memory risk.WindowStore. Per-key operations are
// linearizable under the shard mutex; keys in different shards never
// contend, so unrelated subjects do not serialize.
type Store struct {
	shards [shardCount]shard
	window time.Duration
	clock  clockz.Clock
}

var _ risk.WindowStore = (*Store)(nil)

// New creates a store with the given window duration
func New(window time.Duration, clock clockz.Clock) *Store {
	if clock == nil {
		clock = clockz.RealClock
	}
	s := &Store{window: window, clock: clock}
	for i := range s.shards {
		s.shards[i].counters = make(map[string]*counter)
	}
	return s
}

// Increment applies one event to the key's window and returns the
// post-increment readings.
func (s *Store) Increment(ctx context.Context, key string, amount decimal.Decimal) (int64, decimal.Decimal, error) {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	now := s.clock.Now()
	c := sh.counters[key]
	if c == nil {
		c = &counter{sum: decimal.Zero, windowStart: now}
		sh.counters[key] = c
	} else {
		s.resetIfElapsed(c, now)
	}

	c.count++
	c.sum = c.sum.Add(amount)
	c.lastAccess = now
	return c.count, c.sum, nil
}

// Peek returns the key's current readings without counting an event. It
// still performs the lazy reset, so a stale window reads as empty.
func (s *Store) Peek(ctx context.Context, key string) (int64, decimal.Decimal, error) {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	c := sh.counters[key]
	if c == nil {
		return 0, decimal.Zero, nil
	}
	s.resetIfElapsed(c, s.clock.Now())
	return c.count, c.sum, nil
}

// Sweep evicts counters idle longer than maxIdle, for memory reclamation
// only: correctness never depends on sweeping because resets are lazy.
// Each shard is locked briefly in turn, never the whole store at once.
func (s *Store) Sweep(maxIdle time.Duration) int {
	cutoff := s.clock.Now().Add(-maxIdle)
	removed := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for key, c := range sh.counters {
			if c.lastAccess.Before(cutoff) {
				delete(sh.counters, key)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

// Len reports how many keys are currently tracked
func (s *Store) Len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		n += len(sh.counters)
		sh.mu.Unlock()
	}
	return n
}

func (s *Store) resetIfElapsed(c *counter, now time.Time) {
	if now.After(c.windowStart.Add(s.window)) {
		c.count = 0
		c.sum = decimal.Zero
		c.windowStart = now
	}
}

func (s *Store) shard(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &s.shards[h.Sum32()%shardCount]
}
