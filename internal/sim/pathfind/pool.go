package pathfind

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"dwarfhold.dev/internal/sim/grid"
)

// Pool runs searches on background goroutines, at most `workers` at a time,
// so an expensive search never delays a tick. Searches share no mutable
// state; callers pass an immutable Graph such as *grid.Topology.
type Pool struct {
	sem *semaphore.Weighted
	log *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup

	submitted atomic.Uint64
	completed atomic.Uint64
	inFlight  atomic.Int64
}

func NewPool(workers int, logger *zap.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		sem:    semaphore.NewWeighted(int64(workers)),
		log:    logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Find queues a search. The returned Future resolves with Outcome Canceled if
// ctx or the pool is shut down before the search completes.
func (p *Pool) Find(ctx context.Context, g Graph, start, goal grid.Pos, maxIterations int) *Future {
	f := newFuture()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		f.resolve(Result{Outcome: Canceled})
		return f
	}
	p.wg.Add(1)
	p.mu.Unlock()

	p.submitted.Add(1)
	p.inFlight.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.inFlight.Add(-1)
		defer p.completed.Add(1)

		sctx, cancel := context.WithCancel(ctx)
		defer cancel()
		stop := context.AfterFunc(p.ctx, cancel)
		defer stop()

		if err := p.sem.Acquire(sctx, 1); err != nil {
			f.resolve(Result{Outcome: Canceled})
			return
		}
		defer p.sem.Release(1)
		f.resolve(Search(sctx, g, start, goal, maxIterations))
	}()
	return f
}

// Close cancels outstanding searches and waits for every worker to return.
// Futures of canceled searches resolve with Outcome Canceled.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	pending := p.inFlight.Load()
	p.cancel()
	p.wg.Wait()
	p.log.Info("pathfinding pool stopped",
		zap.Int64("in_flight", pending),
		zap.Uint64("submitted", p.submitted.Load()),
	)
}

type PoolStats struct {
	Submitted uint64 `json:"submitted"`
	Completed uint64 `json:"completed"`
	InFlight  int64  `json:"in_flight"`
}

func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		InFlight:  p.inFlight.Load(),
	}
}
