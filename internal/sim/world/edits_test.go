package world

import (
	"context"
	"errors"
	"testing"

	"dwarfhold.dev/internal/sim/grid"
)

func TestEdits_QueuedAppliedAtTickStart(t *testing.T) {
	al := &memAuditLog{}
	w := flatWorld(t, Deps{AuditLogger: al})
	p := grid.P(4, 4, 0)
	if err := w.QueueEdit(Edit{Op: OpDig, Pos: p, Actor: "client"}); err != nil {
		t.Fatalf("queue: %v", err)
	}
	if w.Topology().IsWalkable(4, 4, 0) {
		t.Fatalf("edit applied before tick")
	}
	before := w.Topology().Version()

	w.Tick(context.Background(), 1)
	if !w.Topology().IsWalkable(4, 4, 0) || w.Topology().Version() == before {
		t.Fatalf("topology not refreshed after edit")
	}
	if len(al.entries) != 1 {
		t.Fatalf("audits=%d", len(al.entries))
	}
	a := al.entries[0]
	if a.Action != "DIG" || a.Tick != 1 || a.From != uint8(grid.Stone) || a.To != uint8(grid.Air) || a.Actor != "client" {
		t.Fatalf("audit: %+v", a)
	}

	got := w.PopChangedTiles()
	if len(got) != 2 || got[0] != p || got[1] != grid.P(4, 4, 1) {
		t.Fatalf("changed: %v", got)
	}
	if w.PopChangedTiles() != nil {
		t.Fatalf("pop should clear the set")
	}
}

func TestEdits_RejectBadRequests(t *testing.T) {
	w := flatWorld(t, Deps{})
	if err := w.QueueEdit(Edit{Op: "FLOOD", Pos: grid.P(1, 1, 1)}); err == nil {
		t.Fatalf("unknown op accepted")
	}
	err := w.QueueEdit(Edit{Op: OpDig, Pos: grid.P(99, 1, 1)})
	if !errors.Is(err, grid.ErrOutOfBounds) {
		t.Fatalf("err=%v", err)
	}
	if _, err := w.Dig(grid.P(-1, 0, 0)); !errors.Is(err, grid.ErrOutOfBounds) {
		t.Fatalf("direct dig err=%v", err)
	}
	if w.PopChangedTiles() != nil {
		t.Fatalf("failed edits marked tiles")
	}
}

func TestEdits_ChannelMarksTileBelow(t *testing.T) {
	w := flatWorld(t, Deps{})
	prev, err := w.Channel(grid.P(2, 2, 1))
	if err != nil || prev != grid.Air {
		t.Fatalf("prev=%v err=%v", prev, err)
	}
	views := w.PopChangedTileViews()
	if len(views) != 2 {
		t.Fatalf("views=%+v", views)
	}
	below := views[0]
	if below.Z != 0 || !below.Flags.Has(grid.HasRamp) || !below.Flags.Has(grid.Walkable) {
		t.Fatalf("below: %+v", below)
	}
	if views[1].Flags != grid.NoFlags {
		t.Fatalf("channeled tile flags=%v", views[1].Flags)
	}
}

func TestEdits_CarveStairs(t *testing.T) {
	w := flatWorld(t, Deps{})
	if _, err := w.CarveStairUp(grid.P(1, 1, 0)); err != nil {
		t.Fatal(err)
	}
	if _, err := w.CarveStairDown(grid.P(1, 1, 1)); err != nil {
		t.Fatal(err)
	}
	if _, err := w.CarveStairUpDown(grid.P(2, 1, 0)); err != nil {
		t.Fatal(err)
	}
	v, _ := w.Tile(grid.P(1, 1, 0))
	if !v.Flags.Has(grid.HasStairUp) {
		t.Fatalf("stair up missing: %+v", v)
	}
	topo := w.Topology()
	found := false
	for _, n := range topo.AppendNeighbors3D(nil, grid.P(1, 1, 0)) {
		if n == grid.P(1, 1, 1) {
			found = true
		}
	}
	if !found {
		t.Fatalf("stair pair not connected in topology")
	}
}

func TestZLevel(t *testing.T) {
	w := flatWorld(t, Deps{})
	l, ok := w.ZLevel(1)
	if !ok || l.Width != 16 || l.Height != 16 {
		t.Fatalf("level: ok=%v %dx%d", ok, l.Width, l.Height)
	}
	wall, floor, flags := l.At(3, 4)
	if wall != grid.Air || floor != grid.Grass || !flags.Has(grid.Walkable) {
		t.Fatalf("tile: %v %v %v", wall, floor, flags)
	}
	if _, ok := w.ZLevel(3); ok {
		t.Fatalf("out of range level")
	}
}
