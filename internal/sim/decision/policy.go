package decision

import (
	"context"
	"math"

	"dwarfhold.dev/internal/sim/creature"
	"dwarfhold.dev/internal/sim/grid"
	"dwarfhold.dev/internal/sim/jobs"
	"dwarfhold.dev/internal/sim/pathfind"
)

const (
	DefaultInterval     = 10
	DefaultWanderRadius = 3
	DefaultWanderBudget = 200

	sleepRestore     = 1.0
	eatRestore       = 0.5
	drinkRestore     = 0.5
	restSleepRestore = 0.5
)

type Config struct {
	// Interval is the number of ticks between decisions.
	Interval     int
	WanderRadius int
	WanderBudget int
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.WanderRadius <= 0 {
		c.WanderRadius = DefaultWanderRadius
	}
	if c.WanderBudget <= 0 {
		c.WanderBudget = DefaultWanderBudget
	}
	return c
}

// Rand is the random source used for wander targets. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

type Action uint8

const (
	ActNone Action = iota
	ActSleep
	ActEat
	ActDrink
	ActKeepJob
	ActClaimJob
	ActRest
	ActWander
	ActIdle
)

var actionNames = [...]string{"none", "sleep", "eat", "drink", "keep_job", "claim_job", "rest", "wander", "idle"}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "unknown"
}

// Decision is what the policy chose. Search is set only for ActWander and
// may still be running when Decide returns.
type Decision struct {
	Action Action
	Target grid.Pos
	Search *pathfind.Future
}

type Policy struct {
	cfg     Config
	rng     Rand
	finder  pathfind.Finder
	claimer jobs.Claimer
}

func New(cfg Config, rng Rand, finder pathfind.Finder, claimer jobs.Claimer) *Policy {
	if finder == nil {
		finder = pathfind.Inline{}
	}
	if claimer == nil {
		claimer = jobs.None{}
	}
	return &Policy{cfg: cfg.withDefaults(), rng: rng, finder: finder, claimer: claimer}
}

func (p *Policy) Config() Config { return p.cfg }

// Due reports whether tick is a decision tick.
func (p *Policy) Due(tick uint64) bool {
	return tick%uint64(p.cfg.Interval) == 0
}

// Decide picks one action for c. The first matching branch wins:
// critical need, held job, newly claimed job, non-critical need, wander.
// Creatures that are dead or already walking a path are left alone.
func (p *Policy) Decide(ctx context.Context, c *creature.Creature, g pathfind.Graph) Decision {
	if c == nil || !c.Alive || c.HasPath() {
		return Decision{Action: ActNone}
	}

	switch c.CriticalNeed() {
	case creature.NeedSleep:
		c.Energy = math.Min(creature.MaxNeed, c.Energy+sleepRestore)
		return Decision{Action: ActSleep}
	case creature.NeedEat:
		c.Hunger = math.Min(creature.MaxNeed, c.Hunger+eatRestore)
		return Decision{Action: ActEat}
	case creature.NeedDrink:
		c.Thirst = math.Min(creature.MaxNeed, c.Thirst+drinkRestore)
		return Decision{Action: ActDrink}
	}

	if c.JobID != "" {
		return Decision{Action: ActKeepJob}
	}
	if p.claimer.TryClaim(ctx, c) && c.JobID != "" {
		return Decision{Action: ActClaimJob}
	}

	if c.NeedsFood() || c.NeedsDrink() || c.NeedsSleep() {
		// Eating and drinking here wait on food and drink sources.
		if c.NeedsSleep() {
			c.Energy = math.Min(creature.MaxNeed, c.Energy+restSleepRestore)
		}
		return Decision{Action: ActRest}
	}

	return p.wander(ctx, c, g)
}

func (p *Policy) wander(ctx context.Context, c *creature.Creature, g pathfind.Graph) Decision {
	cands := WanderCandidates(g, c.Pos(), p.cfg.WanderRadius)
	if len(cands) == 0 || p.rng == nil {
		return Decision{Action: ActIdle}
	}
	target := cands[p.rng.IntN(len(cands))]
	return Decision{
		Action: ActWander,
		Target: target,
		Search: p.finder.Find(ctx, g, c.Pos(), target, p.cfg.WanderBudget),
	}
}

// WanderCandidates lists walkable tiles on from's level within radius on both
// axes, excluding from itself. Order is x-major then y, so a seeded Rand picks
// reproducibly.
func WanderCandidates(g pathfind.Graph, from grid.Pos, radius int) []grid.Pos {
	out := make([]grid.Pos, 0, (2*radius+1)*(2*radius+1)-1)
	for dx := -radius; dx <= radius; dx++ {
		for dy := -radius; dy <= radius; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			x, y := from.X+dx, from.Y+dy
			if g.IsWalkable(x, y, from.Z) {
				out = append(out, grid.P(x, y, from.Z))
			}
		}
	}
	return out
}

// Adopt installs a finished wander path on c with the cursor past the start
// tile. It refuses when the search failed, the path is a single tile, or c
// has died, moved or picked up another path since the search began.
func Adopt(c *creature.Creature, res pathfind.Result) bool {
	if !res.OK() || len(res.Path) <= 1 {
		return false
	}
	if !c.Alive || c.HasPath() || c.Pos() != res.Path[0] {
		return false
	}
	c.SetPath(res.Path, 1)
	return true
}
