// Package scheduler drives the simulation with a fixed-timestep accumulator
// loop. Wall-clock jitter changes how many ticks run per loop iteration, never
// how long a tick is.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultTickRateHz = 20
	DefaultMaxCatchUp = 5
)

var ErrRunning = errors.New("scheduler: already running")

// Clock is a monotonic time source.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// TickFunc advances the simulation to tick n. Ticks are numbered from 1 and
// never overlap.
type TickFunc func(ctx context.Context, n uint64)

type Config struct {
	TickRateHz int
	// MaxCatchUp bounds the ticks run per loop iteration.
	MaxCatchUp int
	Clock      Clock
	Sleep      SleepFunc
	Logger     *zap.Logger
}

type Scheduler struct {
	interval   time.Duration
	maxCatchUp int
	tick       TickFunc
	clock      Clock
	sleep      SleepFunc
	log        *zap.Logger

	paused atomic.Bool
	count  atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	err    error

	// Loop state, owned by the loop goroutine.
	last time.Time
	acc  time.Duration
}

func New(cfg Config, tick TickFunc) *Scheduler {
	if cfg.TickRateHz <= 0 {
		cfg.TickRateHz = DefaultTickRateHz
	}
	if cfg.MaxCatchUp <= 0 {
		cfg.MaxCatchUp = DefaultMaxCatchUp
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepCtx
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Scheduler{
		interval:   time.Second / time.Duration(cfg.TickRateHz),
		maxCatchUp: cfg.MaxCatchUp,
		tick:       tick,
		clock:      cfg.Clock,
		sleep:      cfg.Sleep,
		log:        cfg.Logger,
	}
}

func (s *Scheduler) Interval() time.Duration { return s.interval }

// Run blocks until ctx is done. Cancellation is the normal way to stop and
// is not reported as an error.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("scheduler started",
		zap.Float64("tick_rate_hz", float64(time.Second)/float64(s.interval)),
		zap.Int("max_catch_up", s.maxCatchUp),
	)
	err := s.loop(ctx)
	s.log.Info("scheduler stopped", zap.Uint64("ticks", s.count.Load()))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Scheduler) loop(ctx context.Context) error {
	s.last = s.clock.Now()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.iterate(ctx)
		if err := s.sleep(ctx, s.interval/2); err != nil {
			return err
		}
	}
}

// iterate samples the clock once and runs the ticks that are due. It returns
// the number of ticks run.
func (s *Scheduler) iterate(ctx context.Context) int {
	now := s.clock.Now()
	elapsed := now.Sub(s.last)
	s.last = now
	if s.paused.Load() {
		return 0
	}

	s.acc += elapsed
	ran := 0
	for s.acc >= s.interval && ran < s.maxCatchUp {
		s.tick(ctx, s.count.Add(1))
		s.acc -= s.interval
		ran++
	}
	if s.acc > s.interval*time.Duration(s.maxCatchUp) {
		s.acc = 0
	}
	return ran
}

// Start runs the loop on a new goroutine.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return ErrRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	go func() {
		defer close(done)
		err := s.Run(ctx)
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
	}()
	return nil
}

// Stop cancels a loop started with Start and waits for it to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	cancel()
	<-done

	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.err
	s.cancel, s.done, s.err = nil, nil, nil
	return err
}

// Pause freezes the accumulator. Time that passes while paused is dropped,
// so resuming does not burst.
func (s *Scheduler) Pause()  { s.paused.Store(true) }
func (s *Scheduler) Resume() { s.paused.Store(false) }

// TogglePause flips the pause state and returns the new one.
func (s *Scheduler) TogglePause() bool {
	for {
		old := s.paused.Load()
		if s.paused.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

func (s *Scheduler) Paused() bool { return s.paused.Load() }

func (s *Scheduler) TickCount() uint64 { return s.count.Load() }
