// Package worldgen produces the initial tile grid. Output depends only on
// the seed and the dimensions.
package worldgen

import (
	"fmt"
	"math/rand/v2"

	"dwarfhold.dev/internal/sim/grid"
	"dwarfhold.dev/internal/sim/logic/mathx"
)

const soilDepth = 4

type Params struct {
	Seed     int64
	Width    int
	Height   int
	Depth    int
	SurfaceZ int
}

type ore struct {
	tile     grid.TileType
	clusters int
}

var ores = []ore{
	{grid.IronOre, 30},
	{grid.CopperOre, 25},
	{grid.GoldOre, 10},
}

// Cavern ceilings, top first.
var cavernLevels = []int{15, 8}

type generator struct {
	g       *grid.Grid
	rng     *rand.Rand
	surface int
}

func Generate(p Params) (*grid.Grid, error) {
	g, err := grid.New(p.Width, p.Height, p.Depth)
	if err != nil {
		return nil, fmt.Errorf("worldgen: %w", err)
	}
	if p.SurfaceZ < 0 || p.SurfaceZ >= p.Depth {
		return nil, fmt.Errorf("worldgen: surface z %d outside depth %d", p.SurfaceZ, p.Depth)
	}
	gen := &generator{g: g, rng: newRand(p), surface: p.SurfaceZ}
	gen.terrain()
	gen.ores()
	gen.caverns()
	gen.water()
	return g, nil
}

// newRand seeds a PCG stream from the seed and the map shape so different
// map sizes with one seed do not share a sequence.
func newRand(p Params) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(p.Seed), mathx.Hash3(p.Seed, p.Width, p.Height, p.Depth)))
}

// between returns a uniform int in [lo, hi].
func (gen *generator) between(lo, hi int) int {
	return lo + gen.rng.IntN(hi-lo+1)
}

func (gen *generator) terrain() {
	for z := 0; z < gen.g.Depth(); z++ {
		switch {
		case z > gen.surface:
			gen.g.FillLevel(z, grid.Air, grid.Air, grid.NoFlags)
		case z == gen.surface:
			gen.g.FillLevel(z, grid.Air, grid.Grass, grid.Walkable|grid.HasFloor)
		case z > gen.surface-soilDepth:
			gen.g.FillLevel(z, grid.Soil, grid.Soil, grid.Diggable)
		default:
			gen.g.FillLevel(z, grid.Stone, grid.Stone, grid.Diggable)
		}
	}
}

func (gen *generator) ores() {
	w, h := gen.g.Width(), gen.g.Height()
	maxZ := mathx.MinInt(gen.surface-5, gen.g.Depth()-2)
	if maxZ < 1 || w < 12 || h < 12 {
		return
	}
	for _, o := range ores {
		for i := 0; i < o.clusters; i++ {
			cx := gen.between(5, w-6)
			cy := gen.between(5, h-6)
			cz := gen.between(1, maxZ)
			size := gen.between(3, 8)
			for j := 0; j < size; j++ {
				x := cx + gen.between(-2, 2)
				y := cy + gen.between(-2, 2)
				z := cz + gen.between(-1, 1)
				if gen.g.InBounds(x, y, z) && gen.g.Wall(x, y, z) == grid.Stone {
					gen.g.SetWall(x, y, z, o.tile)
				}
			}
		}
	}
}

func (gen *generator) caverns() {
	w, h := gen.g.Width(), gen.g.Height()
	margin := mathx.MinInt(20, mathx.MinInt(w/4, h/4))
	for _, cz := range cavernLevels {
		if cz >= gen.surface || cz >= gen.g.Depth() {
			continue
		}
		if margin < 2 || w-margin-1 < margin || h-margin-1 < margin {
			continue
		}
		rooms := gen.between(3, 6)
		for i := 0; i < rooms; i++ {
			cx := gen.between(margin, w-margin-1)
			cy := gen.between(margin, h-margin-1)
			rw := gen.between(4, 12)
			rh := gen.between(4, 12)
			r := mathx.MaxInt(rw, rh)/2 + 1
			for dy := -(rh + 1) / 2; dy <= rh/2; dy++ {
				for dx := -(rw + 1) / 2; dx <= rw/2; dx++ {
					if dx*dx+dy*dy > r*r {
						continue
					}
					// Dig only fails out of bounds; rooms may overhang the edge.
					_, _ = gen.g.Dig(grid.P(cx+dx, cy+dy, cz))
				}
			}
		}
	}
}

func (gen *generator) water() {
	w, h := gen.g.Width(), gen.g.Height()
	if w < 22 || h < 22 {
		return
	}
	pools := gen.between(1, 3)
	for i := 0; i < pools; i++ {
		cx := gen.between(10, w-11)
		cy := gen.between(10, h-11)
		r := gen.between(2, 5)
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if dx*dx+dy*dy > r*r {
					continue
				}
				x, y, z := cx+dx, cy+dy, gen.surface
				if !gen.g.InBounds(x, y, z) {
					continue
				}
				gen.g.SetWall(x, y, z, grid.Water)
				gen.g.SetFloor(x, y, z, grid.Water)
				gen.g.SetFlags(x, y, z, grid.HasFloor)
			}
		}
	}
}
