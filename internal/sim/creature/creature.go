package creature

import (
	"math"

	"github.com/google/uuid"

	"dwarfhold.dev/internal/sim/grid"
	"dwarfhold.dev/internal/sim/logic/mathx"
)

const (
	MaxNeed = 100.0

	hungryBelow  = 30.0
	thirstyBelow = 30.0
	tiredBelow   = 20.0

	critSleepBelow = 10.0
	critEatBelow   = 15.0
	critDrinkBelow = 15.0
)

type Need uint8

const (
	NoNeed Need = iota
	NeedSleep
	NeedEat
	NeedDrink
)

func (n Need) String() string {
	switch n {
	case NeedSleep:
		return "sleep"
	case NeedEat:
		return "eat"
	case NeedDrink:
		return "drink"
	default:
		return ""
	}
}

// Creature is a living (or dead) agent. Its position can only change through
// Registry.Move so the spatial index stays exact.
type Creature struct {
	ID    string
	Name  string
	Kind  Kind
	Alive bool

	pos grid.Pos

	// Needs run from 0 (critical) to 100 (satisfied).
	Hunger float64
	Thirst float64
	Energy float64

	HungerDecay float64
	ThirstDecay float64
	EnergyDecay float64

	Path         []grid.Pos
	PathIndex    int
	MoveCooldown int

	JobID  string
	Skills map[string]int
	Labors map[Labor]bool

	glyph, color string
	seq          uint64
}

// New creates a creature with full needs and a random id.
func New(name string, kind Kind, pos grid.Pos) *Creature {
	return NewWithID(uuid.NewString(), name, kind, pos)
}

func NewWithID(id, name string, kind Kind, pos grid.Pos) *Creature {
	prof := ProfileFor(kind)
	c := &Creature{
		ID:          id,
		Name:        name,
		Kind:        kind,
		Alive:       true,
		pos:         pos,
		Hunger:      MaxNeed,
		Thirst:      MaxNeed,
		Energy:      MaxNeed,
		HungerDecay: prof.HungerDecay,
		ThirstDecay: prof.ThirstDecay,
		EnergyDecay: prof.EnergyDecay,
		Skills:      map[string]int{},
		Labors:      map[Labor]bool{},
		glyph:       prof.Glyph,
		color:       prof.Color,
	}
	for _, l := range prof.Labors {
		c.Labors[l] = true
	}
	return c
}

func (c *Creature) Pos() grid.Pos { return c.pos }

// DecayNeeds applies one tick of need decay. It returns true if the creature
// died on this tick: hunger or thirst hit zero. Energy alone never kills.
func (c *Creature) DecayNeeds() bool {
	if !c.Alive {
		return false
	}
	c.Hunger = math.Max(0, c.Hunger-c.HungerDecay)
	c.Thirst = math.Max(0, c.Thirst-c.ThirstDecay)
	c.Energy = math.Max(0, c.Energy-c.EnergyDecay)
	if c.Hunger <= 0 || c.Thirst <= 0 {
		c.Alive = false
		return true
	}
	return false
}

// DeathCause names the need that killed the creature, or "" if alive.
func (c *Creature) DeathCause() string {
	switch {
	case c.Alive:
		return ""
	case c.Hunger <= 0:
		return "starvation"
	case c.Thirst <= 0:
		return "dehydration"
	default:
		return "unknown"
	}
}

// Restore raises a need by amount, capped at MaxNeed.
func (c *Creature) Restore(n Need, amount float64) {
	switch n {
	case NeedSleep:
		c.Energy = mathx.ClampFloat(c.Energy+amount, 0, MaxNeed)
	case NeedEat:
		c.Hunger = mathx.ClampFloat(c.Hunger+amount, 0, MaxNeed)
	case NeedDrink:
		c.Thirst = mathx.ClampFloat(c.Thirst+amount, 0, MaxNeed)
	}
}

func (c *Creature) NeedsFood() bool  { return c.Hunger < hungryBelow }
func (c *Creature) NeedsDrink() bool { return c.Thirst < thirstyBelow }
func (c *Creature) NeedsSleep() bool { return c.Energy < tiredBelow }

// CriticalNeed returns the most pressing need below its critical threshold.
// Sleep is checked first, then food, then drink.
func (c *Creature) CriticalNeed() Need {
	switch {
	case c.Energy < critSleepBelow:
		return NeedSleep
	case c.Hunger < critEatBelow:
		return NeedEat
	case c.Thirst < critDrinkBelow:
		return NeedDrink
	}
	return NoNeed
}

// HasPath reports whether the creature has waypoints left to walk.
func (c *Creature) HasPath() bool {
	return len(c.Path) > 0 && c.PathIndex < len(c.Path)
}

// SetPath adopts a path with the cursor at index.
func (c *Creature) SetPath(path []grid.Pos, index int) {
	c.Path = path
	c.PathIndex = index
}

func (c *Creature) ClearPath() {
	c.Path = nil
	c.PathIndex = 0
}

// NextWaypoint returns the waypoint under the cursor.
func (c *Creature) NextWaypoint() (grid.Pos, bool) {
	if !c.HasPath() {
		return grid.Pos{}, false
	}
	return c.Path[c.PathIndex], true
}

func (c *Creature) CanDo(l Labor) bool { return c.Labors[l] }

func (c *Creature) Display() (glyph, color string) { return c.glyph, c.color }
