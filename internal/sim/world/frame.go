package world

import (
	"dwarfhold.dev/internal/sim/creature"
	"dwarfhold.dev/internal/sim/grid"
)

// Frame is a System's handle on the world during a tick. It is only valid
// inside System.Tick.
type Frame struct {
	w    *World
	Tick uint64
}

func (f *Frame) Grid() *grid.Grid { return f.w.grid }

func (f *Frame) Creatures() *creature.Registry { return f.w.reg }

func (f *Frame) MarkTileChanged(p grid.Pos) { f.w.markChanged(p) }

// Apply runs a terrain edit immediately, with the same bookkeeping as a
// queued edit.
func (f *Frame) Apply(e Edit) (grid.TileType, error) {
	return f.w.applyEdit(f.Tick, e)
}
