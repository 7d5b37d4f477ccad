// Package jobs is the boundary to the job-assignment system. The simulation
// core only ever asks a Claimer to hand a creature work; executing jobs is
// someone else's business.
package jobs

import (
	"context"
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"dwarfhold.dev/internal/sim/creature"
	"dwarfhold.dev/internal/sim/grid"
)

var ErrUnknownJob = errors.New("jobs: unknown job")

// Claimer assigns work. TryClaim may set c.JobID; returning false means no
// work is available, which is not an error.
type Claimer interface {
	TryClaim(ctx context.Context, c *creature.Creature) bool
}

// None never has work.
type None struct{}

func (None) TryClaim(context.Context, *creature.Creature) bool { return false }

type Status string

const (
	StatusOpen    Status = "open"
	StatusClaimed Status = "claimed"
)

type Job struct {
	ID       string         `json:"id"`
	Labor    creature.Labor `json:"labor"`
	Target   grid.Pos       `json:"target"`
	Status   Status         `json:"status"`
	Assignee string         `json:"assignee,omitempty"`
	PostedAt time.Time      `json:"posted_at"`
}

// Board is an in-memory FIFO job queue. It is safe for concurrent use so the
// transport can post jobs while the tick claims them.
type Board struct {
	mu      sync.Mutex
	order   []string
	jobs    map[string]*Job
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

func NewBoard() *Board {
	return &Board{
		jobs:    map[string]*Job{},
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Post queues a new open job and returns its id.
func (b *Board) Post(labor creature.Labor, target grid.Pos) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	id := ulid.MustNew(ulid.Timestamp(now), b.entropy).String()
	b.jobs[id] = &Job{ID: id, Labor: labor, Target: target, Status: StatusOpen, PostedAt: now}
	b.order = append(b.order, id)
	return id
}

// TryClaim gives c the oldest open job whose labor it has enabled.
func (b *Board) TryClaim(ctx context.Context, c *creature.Creature) bool {
	if ctx.Err() != nil || c == nil || !c.Alive {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range b.order {
		j := b.jobs[id]
		if j.Status != StatusOpen || !c.CanDo(j.Labor) {
			continue
		}
		j.Status = StatusClaimed
		j.Assignee = c.ID
		c.JobID = j.ID
		return true
	}
	return false
}

// Complete removes a job. The caller clears the assignee's JobID.
func (b *Board) Complete(id string) (Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	j, ok := b.jobs[id]
	if !ok {
		return Job{}, ErrUnknownJob
	}
	delete(b.jobs, id)
	for i, oid := range b.order {
		if oid == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return *j, nil
}

// Release puts a claimed job back in the queue at its original position.
func (b *Board) Release(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	j, ok := b.jobs[id]
	if !ok {
		return ErrUnknownJob
	}
	j.Status = StatusOpen
	j.Assignee = ""
	return nil
}

func (b *Board) Get(id string) (Job, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	j, ok := b.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// List returns the jobs in posting order.
func (b *Board) List() []Job {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Job, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, *b.jobs[id])
	}
	return out
}

// Reconcile brings creature job ids in line with the board: ids of completed
// jobs are cleared, and jobs held by dead creatures go back to the queue.
// It returns the number of creatures touched.
func (b *Board) Reconcile(creatures []*creature.Creature) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range creatures {
		if c == nil || c.JobID == "" {
			continue
		}
		j, ok := b.jobs[c.JobID]
		switch {
		case !ok || j.Assignee != c.ID:
			c.JobID = ""
			n++
		case !c.Alive:
			j.Status = StatusOpen
			j.Assignee = ""
			c.JobID = ""
			n++
		}
	}
	return n
}
