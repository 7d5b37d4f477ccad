package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type tickRecorder struct {
	mu    sync.Mutex
	ticks []uint64
}

func (r *tickRecorder) tick(_ context.Context, n uint64) {
	r.mu.Lock()
	r.ticks = append(r.ticks, n)
	r.mu.Unlock()
}

func (r *tickRecorder) snapshot() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint64(nil), r.ticks...)
}

func newTestScheduler(clock *manualClock, rec *tickRecorder) *Scheduler {
	s := New(Config{TickRateHz: 20, Clock: clock}, rec.tick)
	s.last = clock.Now()
	return s
}

func TestIterate_FixedStep(t *testing.T) {
	clock := newManualClock()
	rec := &tickRecorder{}
	s := newTestScheduler(clock, rec)
	ctx := context.Background()

	if s.Interval() != 50*time.Millisecond {
		t.Fatalf("interval=%v", s.Interval())
	}
	clock.Advance(49 * time.Millisecond)
	if n := s.iterate(ctx); n != 0 {
		t.Fatalf("ran %d ticks before one interval", n)
	}
	clock.Advance(1 * time.Millisecond)
	if n := s.iterate(ctx); n != 1 {
		t.Fatalf("ran %d want 1", n)
	}
	clock.Advance(120 * time.Millisecond)
	if n := s.iterate(ctx); n != 2 {
		t.Fatalf("ran %d want 2", n)
	}
	if s.acc != 20*time.Millisecond {
		t.Fatalf("acc=%v", s.acc)
	}
	got := rec.snapshot()
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("ticks=%v", got)
	}
}

func TestIterate_CatchUpCapped(t *testing.T) {
	clock := newManualClock()
	rec := &tickRecorder{}
	s := newTestScheduler(clock, rec)
	ctx := context.Background()

	clock.Advance(time.Second)
	if n := s.iterate(ctx); n != 5 {
		t.Fatalf("ran %d want 5", n)
	}
	if s.acc != 0 {
		t.Fatalf("backlog should be dropped, acc=%v", s.acc)
	}
	if n := s.iterate(ctx); n != 0 {
		t.Fatalf("ran %d after reset", n)
	}
}

func TestIterate_SmallBacklogCarriesOver(t *testing.T) {
	clock := newManualClock()
	rec := &tickRecorder{}
	s := newTestScheduler(clock, rec)
	ctx := context.Background()

	clock.Advance(300 * time.Millisecond)
	if n := s.iterate(ctx); n != 5 {
		t.Fatalf("ran %d want 5", n)
	}
	if n := s.iterate(ctx); n != 1 {
		t.Fatalf("carried tick: ran %d want 1", n)
	}
}

func TestIterate_PauseFreezesAccumulator(t *testing.T) {
	clock := newManualClock()
	rec := &tickRecorder{}
	s := newTestScheduler(clock, rec)
	ctx := context.Background()

	clock.Advance(30 * time.Millisecond)
	s.iterate(ctx)
	if !s.TogglePause() || !s.Paused() {
		t.Fatalf("toggle should pause")
	}
	clock.Advance(10 * time.Second)
	if n := s.iterate(ctx); n != 0 {
		t.Fatalf("ticked while paused")
	}
	if s.TogglePause() {
		t.Fatalf("toggle should resume")
	}
	if n := s.iterate(ctx); n != 0 {
		t.Fatalf("burst after resume: %d", n)
	}
	if s.acc != 30*time.Millisecond {
		t.Fatalf("acc=%v want 30ms", s.acc)
	}
	clock.Advance(20 * time.Millisecond)
	if n := s.iterate(ctx); n != 1 {
		t.Fatalf("ran %d want 1", n)
	}
}

func TestStartStop(t *testing.T) {
	clock := newManualClock()
	rec := &tickRecorder{}
	s := New(Config{
		TickRateHz: 20,
		Clock:      clock,
		Sleep: func(ctx context.Context, d time.Duration) error {
			clock.Advance(d)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Millisecond):
				return nil
			}
		},
	}, rec.tick)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Start(context.Background()); err != ErrRunning {
		t.Fatalf("second start: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for s.TickCount() < 10 {
		if time.Now().After(deadline) {
			t.Fatalf("scheduler made no progress")
		}
		time.Sleep(time.Millisecond)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	got := rec.snapshot()
	for i, n := range got {
		if n != uint64(i+1) {
			t.Fatalf("tick %d numbered %d", i, n)
		}
	}
	after := s.TickCount()
	time.Sleep(5 * time.Millisecond)
	if s.TickCount() != after {
		t.Fatalf("ticked after stop")
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("stop twice: %v", err)
	}
}

func TestRun_ParentCancelIsNotAnError(t *testing.T) {
	s := New(Config{TickRateHz: 1000}, func(context.Context, uint64) {})
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()
	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not return")
	}
}
