package creature

import (
	"encoding/json"
	"testing"

	"dwarfhold.dev/internal/sim/grid"
)

func TestProfileFor(t *testing.T) {
	d := ProfileFor(Dwarf)
	if d.HungerDecay != 0.02 || d.ThirstDecay != 0.03 || d.EnergyDecay != 0.015 {
		t.Fatalf("dwarf decay: %+v", d)
	}
	if d.Glyph != "@" || len(d.Labors) != 6 {
		t.Fatalf("dwarf display/labors: %+v", d)
	}
	c := ProfileFor(Cat)
	if c.HungerDecay != 0.01 || c.ThirstDecay != 0.015 || c.EnergyDecay != 0.01 || c.Glyph != "c" {
		t.Fatalf("cat: %+v", c)
	}
	if g := ProfileFor(Kind("troll")); g.Glyph != "?" || g.Color != "#f0f" {
		t.Fatalf("unknown kind: %+v", g)
	}
}

func TestNew_FullNeedsAndLabors(t *testing.T) {
	c := New("Urist", Dwarf, grid.P(1, 2, 3))
	if c.ID == "" || !c.Alive {
		t.Fatalf("new creature: %+v", c)
	}
	if c.Hunger != MaxNeed || c.Thirst != MaxNeed || c.Energy != MaxNeed {
		t.Fatalf("needs not full: %v %v %v", c.Hunger, c.Thirst, c.Energy)
	}
	if !c.CanDo(LaborMining) || c.CanDo(LaborSmithing) {
		t.Fatalf("labors: %v", c.Labors)
	}
	if c.Pos() != grid.P(1, 2, 3) {
		t.Fatalf("pos: %v", c.Pos())
	}
	if New("a", Cat, grid.Pos{}).ID == New("b", Cat, grid.Pos{}).ID {
		t.Fatalf("ids must be unique")
	}
}

func TestDecayNeeds_Starvation(t *testing.T) {
	c := NewWithID("c1", "Urist", Dwarf, grid.Pos{})
	c.Hunger = 0.01
	if !c.DecayNeeds() {
		t.Fatalf("expected death")
	}
	if c.Alive || c.Hunger != 0 {
		t.Fatalf("alive=%v hunger=%v", c.Alive, c.Hunger)
	}
	if c.DeathCause() != "starvation" {
		t.Fatalf("cause: %q", c.DeathCause())
	}
	if c.DecayNeeds() {
		t.Fatalf("dead creature died twice")
	}
}

func TestDecayNeeds_ExhaustionNotFatal(t *testing.T) {
	c := NewWithID("c1", "Urist", Dwarf, grid.Pos{})
	c.Energy = 0.001
	if c.DecayNeeds() || !c.Alive {
		t.Fatalf("energy alone must not kill")
	}
	if c.Energy != 0 {
		t.Fatalf("energy not clamped: %v", c.Energy)
	}
}

func TestDecayNeeds_Linear(t *testing.T) {
	c := NewWithID("c1", "Urist", Dwarf, grid.Pos{})
	for i := 0; i < 100; i++ {
		c.DecayNeeds()
	}
	if got, want := c.Hunger, 100-100*0.02; got < want-1e-9 || got > want+1e-9 {
		t.Fatalf("hunger=%v want %v", got, want)
	}
	if got, want := c.Thirst, 100-100*0.03; got < want-1e-9 || got > want+1e-9 {
		t.Fatalf("thirst=%v want %v", got, want)
	}
}

func TestCriticalNeed_Order(t *testing.T) {
	c := NewWithID("c1", "Urist", Dwarf, grid.Pos{})
	if c.CriticalNeed() != NoNeed {
		t.Fatalf("unexpected need")
	}
	c.Hunger, c.Thirst, c.Energy = 5, 5, 5
	if c.CriticalNeed() != NeedSleep {
		t.Fatalf("sleep should win: %v", c.CriticalNeed())
	}
	c.Energy = 50
	if c.CriticalNeed() != NeedEat {
		t.Fatalf("eat should win: %v", c.CriticalNeed())
	}
	c.Hunger = 50
	if c.CriticalNeed() != NeedDrink {
		t.Fatalf("drink: %v", c.CriticalNeed())
	}
	if !c.NeedsDrink() || c.NeedsFood() {
		t.Fatalf("needs flags wrong")
	}
	c.Restore(NeedDrink, 500)
	if c.Thirst != MaxNeed {
		t.Fatalf("restore not capped: %v", c.Thirst)
	}
}

func TestPathCursor(t *testing.T) {
	c := NewWithID("c1", "Urist", Dwarf, grid.Pos{})
	if c.HasPath() {
		t.Fatalf("no path yet")
	}
	c.SetPath([]grid.Pos{{}, grid.P(1, 0, 0)}, 1)
	if wp, ok := c.NextWaypoint(); !ok || wp != grid.P(1, 0, 0) {
		t.Fatalf("next=%v ok=%v", wp, ok)
	}
	c.PathIndex++
	if c.HasPath() {
		t.Fatalf("cursor past end still reports a path")
	}
}

func TestRecord_JSON(t *testing.T) {
	c := NewWithID("c1", "Urist", Dwarf, grid.P(4, 5, 40))
	c.Hunger = 42.26
	b, err := json.Marshal(c.Record())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["type"] != "dwarf" || m["char"] != "@" || m["hunger"] != 42.3 {
		t.Fatalf("record: %s", b)
	}
	if v, ok := m["job_id"]; !ok || v != nil {
		t.Fatalf("job_id should be null: %s", b)
	}
	c.JobID = "J1"
	if r := c.Record(); r.JobID == nil || *r.JobID != "J1" {
		t.Fatalf("job id: %+v", r.JobID)
	}
}
