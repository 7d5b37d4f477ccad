package world

import "dwarfhold.dev/internal/sim/grid"

// Level is a copy of one z-level, row-major by y then x.
type Level struct {
	Z      int
	Width  int
	Height int
	Walls  []grid.TileType
	Floors []grid.TileType
	Flags  []grid.TileFlag
}

func (l Level) At(x, y int) (wall, floor grid.TileType, flags grid.TileFlag) {
	i := y*l.Width + x
	return l.Walls[i], l.Floors[i], l.Flags[i]
}

func (w *World) ZLevel(z int) (Level, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	walls, floors, flags, ok := w.grid.Level(z)
	if !ok {
		return Level{}, false
	}
	return Level{
		Z:      z,
		Width:  w.grid.Width(),
		Height: w.grid.Height(),
		Walls:  walls,
		Floors: floors,
		Flags:  flags,
	}, true
}

type TileView struct {
	X     int           `json:"x"`
	Y     int           `json:"y"`
	Z     int           `json:"z"`
	Wall  grid.TileType `json:"wall"`
	Floor grid.TileType `json:"floor"`
	Flags grid.TileFlag `json:"flags"`
}

func (w *World) tileView(p grid.Pos) TileView {
	return TileView{
		X: p.X, Y: p.Y, Z: p.Z,
		Wall:  w.grid.Wall(p.X, p.Y, p.Z),
		Floor: w.grid.Floor(p.X, p.Y, p.Z),
		Flags: w.grid.Flags(p.X, p.Y, p.Z),
	}
}

func (w *World) Tile(p grid.Pos) (TileView, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.grid.InBoundsPos(p) {
		return TileView{}, false
	}
	return w.tileView(p), true
}

// PopChangedTileViews pops the changed-tile set and reads each tile in the
// same critical section, so the views match the positions exactly.
func (w *World) PopChangedTileViews() []TileView {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.changed) == 0 {
		return nil
	}
	ps := make([]grid.Pos, 0, len(w.changed))
	for p := range w.changed {
		ps = append(ps, p)
	}
	w.changed = map[grid.Pos]struct{}{}
	sortPositions(ps)
	out := make([]TileView, 0, len(ps))
	for _, p := range ps {
		out = append(out, w.tileView(p))
	}
	return out
}
