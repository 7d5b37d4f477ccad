package world

import (
	"context"

	"dwarfhold.dev/internal/sim/jobs"
)

// JobSystem keeps creature job ids consistent with a job board once per
// tick.
type JobSystem struct {
	Board *jobs.Board
}

func (JobSystem) Name() string { return "jobs" }

func (s JobSystem) Tick(_ context.Context, f *Frame) {
	if s.Board == nil {
		return
	}
	s.Board.Reconcile(f.Creatures().Snapshot())
}
