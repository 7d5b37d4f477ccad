package world

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"

	"dwarfhold.dev/internal/sim/creature"
	"dwarfhold.dev/internal/sim/grid"
	"dwarfhold.dev/internal/sim/pathfind"
)

type memTickLog struct {
	mu      sync.Mutex
	entries []TickLogEntry
}

func (m *memTickLog) WriteTick(e TickLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

type memAuditLog struct {
	entries []AuditEntry
}

func (m *memAuditLog) WriteAudit(e AuditEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

// flatWorld builds a 16x16x3 world whose middle level is open ground over
// solid stone.
func flatWorld(t *testing.T, deps Deps) *World {
	t.Helper()
	g := grid.MustNew(16, 16, 3)
	g.FillLevel(0, grid.Stone, grid.Stone, grid.Diggable)
	g.FillLevel(1, grid.Air, grid.Grass, grid.Walkable|grid.HasFloor)
	if deps.Finder == nil {
		deps.Finder = pathfind.Inline{}
	}
	return New(Config{DecisionInterval: 10, MoveInterval: 3, SurfaceZ: 1, DigestEvery: 1}, g, deps)
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func run(w *World, from, to uint64) {
	for n := from; n <= to; n++ {
		w.Tick(context.Background(), n)
	}
}

func mustCreature(t *testing.T, w *World, id string) *creature.Creature {
	t.Helper()
	w.mu.RLock()
	defer w.mu.RUnlock()
	c, ok := w.reg.Get(id)
	if !ok {
		t.Fatalf("creature %s missing", id)
	}
	return c
}

func checkSpatial(t *testing.T, w *World) {
	t.Helper()
	for _, rec := range w.CreatureRecords() {
		found := false
		for _, at := range w.CreaturesAt(grid.P(rec.X, rec.Y, rec.Z)) {
			if at.ID == rec.ID {
				found = true
			}
		}
		if !found {
			t.Fatalf("%s not indexed at (%d,%d,%d)", rec.ID, rec.X, rec.Y, rec.Z)
		}
	}
}
