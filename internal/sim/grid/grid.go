package grid

import (
	"errors"
	"fmt"
)

var ErrOutOfBounds = errors.New("position out of bounds")

type dims struct {
	width, height, depth int
}

func (d dims) InBounds(x, y, z int) bool {
	return x >= 0 && x < d.width && y >= 0 && y < d.height && z >= 0 && z < d.depth
}

// index lays tiles out z-major, then y, then x (x fastest) so a whole
// z-level is one contiguous run.
func (d dims) index(x, y, z int) int {
	return (z*d.height+y)*d.width + x
}

func (d dims) Width() int  { return d.width }
func (d dims) Height() int { return d.height }
func (d dims) Depth() int  { return d.depth }

// Grid stores terrain for the whole world in dense arrays. It is allocated
// once and never resized.
//
// A Grid is not safe for concurrent mutation. The simulation mutates it only
// from the tick goroutine; concurrent readers use a Topology copy instead.
type Grid struct {
	dims

	walls  []TileType
	floors []TileType
	flags  []TileFlag
	liquid []uint8
}

func New(width, height, depth int) (*Grid, error) {
	if width <= 0 || height <= 0 || depth <= 0 {
		return nil, fmt.Errorf("grid: bad dimensions %dx%dx%d", width, height, depth)
	}
	n := width * height * depth
	return &Grid{
		dims:   dims{width: width, height: height, depth: depth},
		walls:  make([]TileType, n),
		floors: make([]TileType, n),
		flags:  make([]TileFlag, n),
		liquid: make([]uint8, n),
	}, nil
}

// MustNew is New for fixed, known-good dimensions (tests, tools).
func MustNew(width, height, depth int) *Grid {
	g, err := New(width, height, depth)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *Grid) InBoundsPos(p Pos) bool { return g.InBounds(p.X, p.Y, p.Z) }

// Wall returns the wall material at (x,y,z), or Air outside the grid.
func (g *Grid) Wall(x, y, z int) TileType {
	if !g.InBounds(x, y, z) {
		return Air
	}
	return g.walls[g.index(x, y, z)]
}

func (g *Grid) SetWall(x, y, z int, t TileType) {
	if !g.InBounds(x, y, z) {
		return
	}
	g.walls[g.index(x, y, z)] = t
}

// Floor returns the floor material at (x,y,z), or Air outside the grid.
func (g *Grid) Floor(x, y, z int) TileType {
	if !g.InBounds(x, y, z) {
		return Air
	}
	return g.floors[g.index(x, y, z)]
}

func (g *Grid) SetFloor(x, y, z int, t TileType) {
	if !g.InBounds(x, y, z) {
		return
	}
	g.floors[g.index(x, y, z)] = t
}

// Flags returns the flag set at (x,y,z), or NoFlags outside the grid.
func (g *Grid) Flags(x, y, z int) TileFlag {
	if !g.InBounds(x, y, z) {
		return NoFlags
	}
	return g.flags[g.index(x, y, z)]
}

func (g *Grid) SetFlags(x, y, z int, f TileFlag) {
	if !g.InBounds(x, y, z) {
		return
	}
	g.flags[g.index(x, y, z)] = f
}

func (g *Grid) AddFlag(x, y, z int, f TileFlag) {
	if !g.InBounds(x, y, z) {
		return
	}
	g.flags[g.index(x, y, z)] |= f
}

func (g *Grid) RemoveFlag(x, y, z int, f TileFlag) {
	if !g.InBounds(x, y, z) {
		return
	}
	g.flags[g.index(x, y, z)] &^= f
}

func (g *Grid) HasFlag(x, y, z int, f TileFlag) bool {
	return g.Flags(x, y, z).Has(f)
}

func (g *Grid) Liquid(x, y, z int) uint8 {
	if !g.InBounds(x, y, z) {
		return 0
	}
	return g.liquid[g.index(x, y, z)]
}

// SetLiquid stores a liquid level, clamped to MaxLiquid.
func (g *Grid) SetLiquid(x, y, z int, level uint8) {
	if !g.InBounds(x, y, z) {
		return
	}
	if level > MaxLiquid {
		level = MaxLiquid
	}
	g.liquid[g.index(x, y, z)] = level
}

// IsWalkable is derived from the walkable flag; out-of-bounds is never walkable.
func (g *Grid) IsWalkable(x, y, z int) bool {
	return isWalkable(g.dims, g.flags, x, y, z)
}

func (g *Grid) Neighbors2D(p Pos) []Pos {
	return neighbors2D(g.dims, g.flags, p, nil)
}

func (g *Grid) Neighbors3D(p Pos) []Pos {
	return neighbors3D(g.dims, g.flags, p, nil)
}

// AppendNeighbors3D appends the 3D neighbors of p to buf and returns it.
func (g *Grid) AppendNeighbors3D(buf []Pos, p Pos) []Pos {
	return neighbors3D(g.dims, g.flags, p, buf)
}

// TilesInRect lists the in-bounds positions of a rectangle on level z.
// Corners may be given in any order.
func (g *Grid) TilesInRect(x1, y1, x2, y2, z int) []Pos {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	var out []Pos
	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			if g.InBounds(x, y, z) {
				out = append(out, Pos{X: x, Y: y, Z: z})
			}
		}
	}
	return out
}

// Level returns copies of the wall, floor and flag arrays of a single
// z-level in row-major (y, x) order.
func (g *Grid) Level(z int) (walls, floors []TileType, flags []TileFlag, ok bool) {
	if z < 0 || z >= g.depth {
		return nil, nil, nil, false
	}
	n := g.width * g.height
	lo := g.index(0, 0, z)
	walls = append([]TileType(nil), g.walls[lo:lo+n]...)
	floors = append([]TileType(nil), g.floors[lo:lo+n]...)
	flags = append([]TileFlag(nil), g.flags[lo:lo+n]...)
	return walls, floors, flags, true
}

// FillLevel sets wall, floor and flags for every tile of level z.
func (g *Grid) FillLevel(z int, wall, floor TileType, flags TileFlag) {
	if z < 0 || z >= g.depth {
		return
	}
	n := g.width * g.height
	lo := g.index(0, 0, z)
	for i := lo; i < lo+n; i++ {
		g.walls[i] = wall
		g.floors[i] = floor
		g.flags[i] = flags
	}
}

// Raw exposes the backing arrays for hashing and bulk encoding. Callers must
// not modify them.
func (g *Grid) Raw() (walls, floors []TileType, flags []TileFlag, liquid []uint8) {
	return g.walls, g.floors, g.flags, g.liquid
}

func isWalkable(d dims, flags []TileFlag, x, y, z int) bool {
	if !d.InBounds(x, y, z) {
		return false
	}
	return flags[d.index(x, y, z)].Has(Walkable)
}

// Fixed neighbor order keeps searches deterministic.
var cardinals = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

func neighbors2D(d dims, flags []TileFlag, p Pos, buf []Pos) []Pos {
	for _, c := range cardinals {
		nx, ny := p.X+c[0], p.Y+c[1]
		if isWalkable(d, flags, nx, ny, p.Z) {
			buf = append(buf, Pos{X: nx, Y: ny, Z: p.Z})
		}
	}
	return buf
}

func neighbors3D(d dims, flags []TileFlag, p Pos, buf []Pos) []Pos {
	buf = neighbors2D(d, flags, p, buf)
	if !d.InBounds(p.X, p.Y, p.Z) {
		return buf
	}
	here := flags[d.index(p.X, p.Y, p.Z)]

	// Up-stair pairs with a walkable down-stair directly above.
	if here.Has(HasStairUp) && isWalkable(d, flags, p.X, p.Y, p.Z+1) &&
		flags[d.index(p.X, p.Y, p.Z+1)].Has(HasStairDown) {
		buf = append(buf, Pos{X: p.X, Y: p.Y, Z: p.Z + 1})
	}
	// Down-stair pairs with a walkable up-stair directly below.
	if here.Has(HasStairDown) && isWalkable(d, flags, p.X, p.Y, p.Z-1) &&
		flags[d.index(p.X, p.Y, p.Z-1)].Has(HasStairUp) {
		buf = append(buf, Pos{X: p.X, Y: p.Y, Z: p.Z - 1})
	}
	// A ramp leads to the tile below; the lower tile needs no flag of its own.
	if here.Has(HasRamp) && isWalkable(d, flags, p.X, p.Y, p.Z-1) {
		buf = append(buf, Pos{X: p.X, Y: p.Y, Z: p.Z - 1})
	}
	return buf
}
