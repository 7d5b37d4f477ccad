package world

import (
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"dwarfhold.dev/internal/sim/creature"
	"dwarfhold.dev/internal/sim/decision"
	"dwarfhold.dev/internal/sim/grid"
	"dwarfhold.dev/internal/sim/jobs"
	"dwarfhold.dev/internal/sim/pathfind"
)

const DefaultMoveInterval = 3

const fallbackSeed = 1

type Config struct {
	DecisionInterval int
	MoveInterval     int
	WanderRadius     int
	WanderBudget     int
	SurfaceZ         int
	// DigestEvery stamps a state digest on every Nth tick log entry. Zero
	// leaves Digest empty; only deterministic runs can verify it.
	DigestEvery int
}

// Deps are the collaborators a World talks to. Every field is optional; a
// missing Rand falls back to a fixed-seed generator.
type Deps struct {
	Finder      pathfind.Finder
	Claimer     jobs.Claimer
	Rand        decision.Rand
	Logger      *zap.Logger
	TickLogger  TickLogger
	AuditLogger AuditLogger
}

// World is the simulation context object: the grid, the creatures and every
// piece of per-run state. Tick is the only writer during a run; readers take
// the read lock and always observe a tick boundary.
type World struct {
	cfg    Config
	log    *zap.Logger
	policy *decision.Policy

	mu      sync.RWMutex
	grid    *grid.Grid
	reg     *creature.Registry
	tick    uint64
	changed map[grid.Pos]struct{}
	pending map[string]*pathfind.Future
	systems []System

	terrainVersion uint64
	topo           *grid.Topology
	topoVersion    uint64

	editMu sync.Mutex
	edits  []Edit

	tickLogger  TickLogger
	auditLogger AuditLogger

	metrics atomic.Value
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

type TickLogEntry struct {
	Tick      uint64        `json:"tick"`
	Alive     int           `json:"alive"`
	Dead      int           `json:"dead"`
	Moves     int           `json:"moves"`
	Decisions int           `json:"decisions"`
	Deaths    []DeathRecord `json:"deaths,omitempty"`
	Digest    string        `json:"digest,omitempty"`
}

type DeathRecord struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Cause string `json:"cause"`
	Pos   [3]int `json:"pos"`
}

type AuditEntry struct {
	Tick   uint64 `json:"tick"`
	Actor  string `json:"actor"`
	Action string `json:"action"` // e.g. "DIG"
	Pos    [3]int `json:"pos"`
	From   uint8  `json:"from"`
	To     uint8  `json:"to"`
	Reason string `json:"reason,omitempty"`
}

func New(cfg Config, g *grid.Grid, deps Deps) *World {
	if cfg.MoveInterval <= 0 {
		cfg.MoveInterval = DefaultMoveInterval
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if deps.Rand == nil {
		log.Warn("no random source given, wandering uses a fixed seed")
		deps.Rand = rand.New(rand.NewPCG(fallbackSeed, fallbackSeed^0x9e3779b97f4a7c15))
	}
	w := &World{
		cfg: cfg,
		log: log,
		policy: decision.New(decision.Config{
			Interval:     cfg.DecisionInterval,
			WanderRadius: cfg.WanderRadius,
			WanderBudget: cfg.WanderBudget,
		}, deps.Rand, deps.Finder, deps.Claimer),
		grid:        g,
		reg:         creature.NewRegistry(),
		changed:     map[grid.Pos]struct{}{},
		pending:     map[string]*pathfind.Future{},
		tickLogger:  deps.TickLogger,
		auditLogger: deps.AuditLogger,
	}
	w.topo = g.Topology(0)
	return w
}

// AddCreature registers c. Safe to call between ticks.
func (w *World) AddCreature(c *creature.Creature) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reg.Add(c)
}

func (w *World) RemoveCreature(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.pending, id)
	_, ok := w.reg.Remove(id)
	return ok
}

// CreatureRecords lists every creature, dead ones included, in spawn order.
func (w *World) CreatureRecords() []creature.DisplayRecord {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.reg.DisplayRecords()
}

func (w *World) Creature(id string) (creature.DisplayRecord, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	c, ok := w.reg.Get(id)
	if !ok {
		return creature.DisplayRecord{}, false
	}
	return c.Record(), true
}

// CreaturesAt returns the records of creatures standing on p.
func (w *World) CreaturesAt(p grid.Pos) []creature.DisplayRecord {
	w.mu.RLock()
	defer w.mu.RUnlock()
	cs := w.reg.At(p)
	out := make([]creature.DisplayRecord, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Record())
	}
	return out
}

func (w *World) CurrentTick() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.tick
}

type Dims struct {
	Width    int `json:"width"`
	Height   int `json:"height"`
	Depth    int `json:"depth"`
	SurfaceZ int `json:"surface_z"`
}

func (w *World) Dims() Dims {
	return Dims{Width: w.grid.Width(), Height: w.grid.Height(), Depth: w.grid.Depth(), SurfaceZ: w.cfg.SurfaceZ}
}

// Topology returns the current read-only walkability snapshot.
func (w *World) Topology() *grid.Topology {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.topo
}

// refreshTopology replaces the snapshot if terrain changed since it was
// taken. Caller holds w.mu.
func (w *World) refreshTopology() {
	if w.topoVersion == w.terrainVersion {
		return
	}
	w.topo = w.grid.Topology(w.terrainVersion)
	w.topoVersion = w.terrainVersion
}
