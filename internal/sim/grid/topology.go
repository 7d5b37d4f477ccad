package grid

// Topology is an immutable copy of a grid's dimensions and flags. It answers
// the same walkability and neighbor queries as Grid and is safe to share
// between goroutines, so searches never read the live grid while the tick
// goroutine edits it.
type Topology struct {
	dims
	flags   []TileFlag
	version uint64
}

// Topology copies the current flag state. version is an opaque caller
// counter carried along for staleness checks.
func (g *Grid) Topology(version uint64) *Topology {
	return &Topology{
		dims:    g.dims,
		flags:   append([]TileFlag(nil), g.flags...),
		version: version,
	}
}

func (t *Topology) Version() uint64 { return t.version }

func (t *Topology) Flags(x, y, z int) TileFlag {
	if !t.InBounds(x, y, z) {
		return NoFlags
	}
	return t.flags[t.index(x, y, z)]
}

func (t *Topology) IsWalkable(x, y, z int) bool {
	return isWalkable(t.dims, t.flags, x, y, z)
}

func (t *Topology) AppendNeighbors3D(buf []Pos, p Pos) []Pos {
	return neighbors3D(t.dims, t.flags, p, buf)
}
