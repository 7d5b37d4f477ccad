package jobs

import (
	"context"
	"errors"
	"testing"

	"dwarfhold.dev/internal/sim/creature"
	"dwarfhold.dev/internal/sim/grid"
)

func TestNone(t *testing.T) {
	c := creature.NewWithID("a", "A", creature.Dwarf, grid.Pos{})
	if (None{}).TryClaim(context.Background(), c) || c.JobID != "" {
		t.Fatalf("None must not assign work")
	}
}

func TestBoard_ClaimByLabor(t *testing.T) {
	b := NewBoard()
	smith := b.Post(creature.LaborSmithing, grid.P(1, 1, 1))
	mine := b.Post(creature.LaborMining, grid.P(2, 2, 2))
	if smith == mine || len(smith) != 26 {
		t.Fatalf("ids: %q %q", smith, mine)
	}

	d := creature.NewWithID("d", "Urist", creature.Dwarf, grid.Pos{})
	if !b.TryClaim(context.Background(), d) {
		t.Fatalf("dwarf should claim mining")
	}
	if d.JobID != mine {
		t.Fatalf("claimed %q want %q", d.JobID, mine)
	}
	j, _ := b.Get(mine)
	if j.Status != StatusClaimed || j.Assignee != "d" {
		t.Fatalf("job: %+v", j)
	}

	cat := creature.NewWithID("c", "Tom", creature.Cat, grid.Pos{})
	if b.TryClaim(context.Background(), cat) {
		t.Fatalf("cats have no labors")
	}
}

func TestBoard_ReleaseAndComplete(t *testing.T) {
	b := NewBoard()
	id := b.Post(creature.LaborHauling, grid.Pos{})
	d := creature.NewWithID("d", "Urist", creature.Dwarf, grid.Pos{})
	b.TryClaim(context.Background(), d)

	if err := b.Release(id); err != nil {
		t.Fatalf("release: %v", err)
	}
	d2 := creature.NewWithID("e", "Bomrek", creature.Dwarf, grid.Pos{})
	if !b.TryClaim(context.Background(), d2) || d2.JobID != id {
		t.Fatalf("released job should be claimable")
	}
	if _, err := b.Complete(id); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if len(b.List()) != 0 {
		t.Fatalf("board not empty")
	}
	if _, err := b.Complete(id); !errors.Is(err, ErrUnknownJob) {
		t.Fatalf("err=%v", err)
	}
	if err := b.Release("nope"); !errors.Is(err, ErrUnknownJob) {
		t.Fatalf("err=%v", err)
	}
}

func TestBoard_CanceledContext(t *testing.T) {
	b := NewBoard()
	b.Post(creature.LaborMining, grid.Pos{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := creature.NewWithID("d", "Urist", creature.Dwarf, grid.Pos{})
	if b.TryClaim(ctx, d) {
		t.Fatalf("canceled claim should fail")
	}
}

func TestBoard_Reconcile(t *testing.T) {
	b := NewBoard()
	first := b.Post(creature.LaborMining, grid.P(1, 1, 1))
	second := b.Post(creature.LaborMining, grid.P(2, 2, 1))

	done := creature.NewWithID("a", "Urist", creature.Dwarf, grid.Pos{})
	dead := creature.NewWithID("b", "Bomrek", creature.Dwarf, grid.Pos{})
	idle := creature.NewWithID("c", "Cog", creature.Dwarf, grid.Pos{})
	ctx := context.Background()
	b.TryClaim(ctx, done)
	b.TryClaim(ctx, dead)
	if done.JobID != first || dead.JobID != second {
		t.Fatalf("claims: %q %q", done.JobID, dead.JobID)
	}

	if _, err := b.Complete(first); err != nil {
		t.Fatal(err)
	}
	dead.Alive = false

	if n := b.Reconcile([]*creature.Creature{done, dead, idle}); n != 2 {
		t.Fatalf("touched=%d want 2", n)
	}
	if done.JobID != "" || dead.JobID != "" {
		t.Fatalf("job ids not cleared: %q %q", done.JobID, dead.JobID)
	}
	j, _ := b.Get(second)
	if j.Status != StatusOpen || j.Assignee != "" {
		t.Fatalf("dead creature's job not released: %+v", j)
	}
	if !b.TryClaim(ctx, idle) || idle.JobID != second {
		t.Fatalf("released job should be claimable, got %q", idle.JobID)
	}
}
