package worldgen

import (
	"fmt"

	"github.com/google/uuid"

	"dwarfhold.dev/internal/sim/creature"
	"dwarfhold.dev/internal/sim/grid"
)

var dwarfNames = []string{
	"Urist", "Bomrek", "Kadol", "Datan", "Erith", "Litast", "Mafol",
	"Olon", "Rigoth", "Sodel", "Tosid", "Zasit", "Ingish", "Asob",
}

var petNames = map[creature.Kind][]string{
	creature.Cat: {"Whiskers", "Tabby", "Smudge", "Mittens"},
	creature.Dog: {"Rex", "Biscuit", "Fang", "Pebble"},
}

type Population struct {
	Dwarves int
	Cats    int
	Dogs    int
}

// SpawnPoints returns up to n walkable tiles on level z, nearest to the map
// centre first (square rings, row-major within a ring).
func SpawnPoints(g *grid.Grid, z, n int) []grid.Pos {
	if n <= 0 || z < 0 || z >= g.Depth() {
		return nil
	}
	cx, cy := g.Width()/2, g.Height()/2
	maxR := g.Width()
	if g.Height() > maxR {
		maxR = g.Height()
	}
	out := make([]grid.Pos, 0, n)
	for r := 0; r <= maxR && len(out) < n; r++ {
		for dy := -r; dy <= r && len(out) < n; dy++ {
			for dx := -r; dx <= r && len(out) < n; dx++ {
				if dx != -r && dx != r && dy != -r && dy != r {
					continue
				}
				if g.IsWalkable(cx+dx, cy+dy, z) {
					out = append(out, grid.P(cx+dx, cy+dy, z))
				}
			}
		}
	}
	return out
}

// Populate creates the starting creatures on the surface. Ids are name-based
// UUIDs derived from the seed, so a seeded run is reproducible.
func Populate(g *grid.Grid, surfaceZ int, pop Population, seed int64) []*creature.Creature {
	type slot struct {
		kind creature.Kind
		name string
	}
	var slots []slot
	for i := 0; i < pop.Dwarves; i++ {
		name := dwarfNames[i%len(dwarfNames)]
		if i >= len(dwarfNames) {
			name = fmt.Sprintf("%s %d", name, i/len(dwarfNames)+1)
		}
		slots = append(slots, slot{creature.Dwarf, name})
	}
	for _, k := range []creature.Kind{creature.Cat, creature.Dog} {
		count := pop.Cats
		if k == creature.Dog {
			count = pop.Dogs
		}
		names := petNames[k]
		for i := 0; i < count; i++ {
			slots = append(slots, slot{k, names[i%len(names)]})
		}
	}

	points := SpawnPoints(g, surfaceZ, len(slots))
	out := make([]*creature.Creature, 0, len(points))
	for i, p := range points {
		s := slots[i]
		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("dwarfhold/%d/%d/%s", seed, i, s.kind))).String()
		out = append(out, creature.NewWithID(id, s.name, s.kind, p))
	}
	return out
}
