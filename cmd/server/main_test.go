package main

import (
	"context"
	"sync"
	"testing"

	"dwarfhold.dev/internal/sim/pathfind"
	"dwarfhold.dev/internal/sim/tuning"
	"dwarfhold.dev/internal/sim/world"
	"dwarfhold.dev/internal/sim/worldgen"
)

type entryLog struct {
	mu      sync.Mutex
	entries []world.TickLogEntry
}

func (l *entryLog) WriteTick(e world.TickLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	return nil
}

func TestWorldConfig_TickEntriesCarryNoDigest(t *testing.T) {
	tune := tuning.Defaults()
	tune.Map = tuning.Map{Width: 32, Height: 32, Depth: 20, SurfaceZ: 16}
	cfg := worldConfig(tune)
	if cfg.DigestEvery != 0 {
		t.Fatalf("DigestEvery=%d want 0", cfg.DigestEvery)
	}

	g, err := worldgen.Generate(worldgen.Params{Seed: 1, Width: 32, Height: 32, Depth: 20, SurfaceZ: 16})
	if err != nil {
		t.Fatal(err)
	}
	log := &entryLog{}
	w := world.New(cfg, g, world.Deps{Finder: pathfind.Inline{}, TickLogger: log})
	for _, c := range worldgen.Populate(g, 16, worldgen.Population{Dwarves: 3}, 1) {
		w.AddCreature(c)
	}
	for n := uint64(1); n <= 20; n++ {
		w.Tick(context.Background(), n)
	}
	if len(log.entries) != 20 {
		t.Fatalf("entries=%d want 20", len(log.entries))
	}
	for _, e := range log.entries {
		if e.Digest != "" {
			t.Fatalf("tick %d carries a digest", e.Tick)
		}
	}
}
