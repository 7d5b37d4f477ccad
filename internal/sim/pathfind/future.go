package pathfind

import (
	"context"

	"dwarfhold.dev/internal/sim/grid"
)

// Future is the one-shot result of a search that may still be running.
type Future struct {
	done chan struct{}
	res  Result
}

func newFuture() *Future { return &Future{done: make(chan struct{})} }

// Resolved returns a Future that already holds res.
func Resolved(res Result) *Future {
	f := newFuture()
	f.resolve(res)
	return f
}

// Pending returns an unresolved Future and the function that resolves it.
// Resolving twice panics.
func Pending() (*Future, func(Result)) {
	f := newFuture()
	return f, f.resolve
}

func (f *Future) resolve(res Result) {
	f.res = res
	close(f.done)
}

func (f *Future) Done() <-chan struct{} { return f.done }

func (f *Future) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result returns the search result if it is ready.
func (f *Future) Result() (Result, bool) {
	if !f.Ready() {
		return Result{}, false
	}
	return f.res, true
}

// Wait blocks until the search finishes or ctx is done.
func (f *Future) Wait(ctx context.Context) (Result, error) {
	select {
	case <-f.done:
		return f.res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Finder starts searches. Implementations decide where the search runs.
type Finder interface {
	Find(ctx context.Context, g Graph, start, goal grid.Pos, maxIterations int) *Future
}

// Inline searches on the calling goroutine and returns a resolved Future.
// Used for deterministic runs where every decision must see its path in the
// same tick.
type Inline struct{}

func (Inline) Find(ctx context.Context, g Graph, start, goal grid.Pos, maxIterations int) *Future {
	return Resolved(Search(ctx, g, start, goal, maxIterations))
}
