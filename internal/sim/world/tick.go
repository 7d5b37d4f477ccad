package world

import (
	"context"
	"time"

	"go.uber.org/zap"

	"dwarfhold.dev/internal/sim/creature"
	"dwarfhold.dev/internal/sim/decision"
)

// System runs once per tick after every creature has been processed, in
// registration order.
type System interface {
	Name() string
	Tick(ctx context.Context, f *Frame)
}

// RegisterSystem appends s to the per-tick system list.
func (w *World) RegisterSystem(s System) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.systems = append(w.systems, s)
}

type tickStats struct {
	moves     int
	decisions int
	adopted   int
	deaths    []DeathRecord
}

// Tick advances the world to tick n. Per creature, in spawn order: decay
// needs, then either walk the current path or, on decision ticks, decide.
func (w *World) Tick(ctx context.Context, n uint64) {
	start := time.Now()

	w.mu.Lock()
	w.tick = n
	w.applyQueuedEdits(n)
	w.refreshTopology()
	w.adoptFinishedSearches()

	var st tickStats
	for _, c := range w.reg.Snapshot() {
		w.stepCreature(ctx, c, n, &st)
	}

	if len(w.systems) > 0 {
		f := &Frame{w: w, Tick: n}
		for _, s := range w.systems {
			s.Tick(ctx, f)
		}
	}
	w.refreshTopology()

	alive, dead := w.reg.Counts()
	entry := TickLogEntry{
		Tick:      n,
		Alive:     alive,
		Dead:      dead,
		Moves:     st.moves,
		Decisions: st.decisions,
		Deaths:    st.deaths,
	}
	if w.tickLogger != nil && w.digestDue(n) {
		entry.Digest = w.stateDigest(n)
	}
	pending := len(w.pending)
	w.mu.Unlock()

	for _, d := range st.deaths {
		w.log.Info("creature died",
			zap.Uint64("tick", n),
			zap.String("id", d.ID),
			zap.String("name", d.Name),
			zap.String("cause", d.Cause),
		)
	}
	if w.tickLogger != nil {
		_ = w.tickLogger.WriteTick(entry)
	}
	w.storeMetrics(entry, pending, time.Since(start))
}

func (w *World) digestDue(n uint64) bool {
	return w.cfg.DigestEvery > 0 && n%uint64(w.cfg.DigestEvery) == 0
}

func (w *World) stepCreature(ctx context.Context, c *creature.Creature, n uint64, st *tickStats) {
	if !c.Alive {
		return
	}
	if c.DecayNeeds() {
		delete(w.pending, c.ID)
		p := c.Pos()
		st.deaths = append(st.deaths, DeathRecord{
			ID:    c.ID,
			Name:  c.Name,
			Kind:  string(c.Kind),
			Cause: c.DeathCause(),
			Pos:   p.Array(),
		})
		return
	}

	if c.HasPath() {
		if c.MoveCooldown > 0 {
			c.MoveCooldown--
			return
		}
		next := c.Path[c.PathIndex]
		// The path was planned against an older snapshot; check the live grid.
		if w.grid.IsWalkable(next.X, next.Y, next.Z) {
			w.reg.Move(c, next)
			st.moves++
		}
		c.PathIndex++
		c.MoveCooldown = w.cfg.MoveInterval
		if c.PathIndex >= len(c.Path) {
			c.ClearPath()
		}
		return
	}

	if !w.policy.Due(n) {
		return
	}
	if _, waiting := w.pending[c.ID]; waiting {
		return
	}
	d := w.policy.Decide(ctx, c, w.topo)
	st.decisions++
	if d.Search == nil {
		return
	}
	if res, ok := d.Search.Result(); ok {
		if decision.Adopt(c, res) {
			st.adopted++
		}
		return
	}
	w.pending[c.ID] = d.Search
}

// adoptFinishedSearches installs wander paths whose searches completed since
// the last tick. Caller holds w.mu.
func (w *World) adoptFinishedSearches() {
	for id, fut := range w.pending {
		res, ok := fut.Result()
		if !ok {
			continue
		}
		delete(w.pending, id)
		if c, ok := w.reg.Get(id); ok {
			decision.Adopt(c, res)
		}
	}
}

// PendingSearches is the number of creatures waiting on a path search.
func (w *World) PendingSearches() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.pending)
}
