// Package sweeper runs the periodic cleanup task that reclaims memory
// from expired counters, idle buckets and stale OTP records.
package sweeper

import (
	"context"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
)

// CounterSweeper evicts idle keyed state (window counters, rate buckets)
type CounterSweeper interface {
	Sweep(maxIdle time.Duration) int
}

// OtpCleaner retires expired OTP records
type OtpCleaner interface {
	CleanupExpired(ctx context.Context) (int, error)
}

// Config configures sweep cadence
type Config struct {
	Enabled         bool
	CounterInterval time.Duration
	OtpInterval     time.Duration
	// Idle time after which counters and buckets are evicted
	CounterMaxIdle time.Duration
}

// Sweeper owns the background cleanup lifecycle: started on init,
// stopped on shutdown, fully independent of the request path. Swept
// structures take their own short per-shard locks, so sweeping never
// stalls concurrent request-path operations.
type Sweeper struct {
	cfg      Config
	counters []CounterSweeper
	otp      OtpCleaner
	clock    clockz.Clock
	logger   *zap.Logger

	stop chan struct{}
	done sync.WaitGroup
	once sync.Once
}

// New creates a sweeper over the given targets. otp may be nil.
func New(cfg Config, counters []CounterSweeper, otp OtpCleaner, clock clockz.Clock, logger *zap.Logger) *Sweeper {
	if clock == nil {
		clock = clockz.RealClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CounterMaxIdle <= 0 {
		cfg.CounterMaxIdle = 2 * cfg.CounterInterval
	}
	return &Sweeper{
		cfg:      cfg,
		counters: counters,
		otp:      otp,
		clock:    clock,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Start launches the sweep loops. No-op when disabled.
func (s *Sweeper) Start() {
	if !s.cfg.Enabled {
		return
	}

	s.done.Add(1)
	go s.runCounterLoop()

	if s.otp != nil {
		s.done.Add(1)
		go s.runOtpLoop()
	}
}

// Stop halts the loops and waits for them to exit
func (s *Sweeper) Stop() {
	s.once.Do(func() { close(s.stop) })
	s.done.Wait()
}

// SweepCountersNow runs one counter sweep pass immediately
func (s *Sweeper) SweepCountersNow() int {
	removed := 0
	for _, c := range s.counters {
		removed += c.Sweep(s.cfg.CounterMaxIdle)
	}
	return removed
}

// SweepOtpNow runs one OTP cleanup pass immediately
func (s *Sweeper) SweepOtpNow(ctx context.Context) (int, error) {
	if s.otp == nil {
		return 0, nil
	}
	return s.otp.CleanupExpired(ctx)
}

func (s *Sweeper) runCounterLoop() {
	defer s.done.Done()

	ticker := s.clock.NewTicker(s.cfg.CounterInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			removed := s.SweepCountersNow()
			if removed > 0 {
				s.logger.Debug("swept idle counters", zap.Int("removed", removed))
			}
		case <-s.stop:
			return
		}
	}
}

func (s *Sweeper) runOtpLoop() {
	defer s.done.Done()

	ticker := s.clock.NewTicker(s.cfg.OtpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			retired, err := s.otp.CleanupExpired(context.Background())
			if err != nil {
				s.logger.Warn("otp cleanup failed", zap.Error(err))
				continue
			}
			if retired > 0 {
				s.logger.Info("retired expired otp records", zap.Int("retired", retired))
			}
		case <-s.stop:
			return
		}
	}
}
