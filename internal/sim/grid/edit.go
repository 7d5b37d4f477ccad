package grid

// Terrain edits. Each returns the wall material the tile held before the
// edit so callers can audit or undo it.

func (g *Grid) checkEdit(p Pos) error {
	if !g.InBoundsPos(p) {
		return ErrOutOfBounds
	}
	return nil
}

// Dig removes the wall and leaves a walkable floor. If the tile above is open
// air it gains a floor too: the dug tile's ceiling becomes standable ground.
func (g *Grid) Dig(p Pos) (TileType, error) {
	if err := g.checkEdit(p); err != nil {
		return Air, err
	}
	i := g.index(p.X, p.Y, p.Z)
	old := g.walls[i]
	g.walls[i] = Air
	g.flags[i] = Walkable | HasFloor
	if g.InBounds(p.X, p.Y, p.Z+1) && g.Wall(p.X, p.Y, p.Z+1) == Air {
		g.AddFlag(p.X, p.Y, p.Z+1, HasFloor)
	}
	return old, nil
}

// Channel removes wall and floor, leaving an unwalkable hole. A solid tile
// below is dug out and becomes a ramp.
func (g *Grid) Channel(p Pos) (TileType, error) {
	if err := g.checkEdit(p); err != nil {
		return Air, err
	}
	i := g.index(p.X, p.Y, p.Z)
	old := g.walls[i]
	g.walls[i] = Air
	g.floors[i] = Air
	g.flags[i] = NoFlags

	below := p.Add(0, 0, -1)
	if g.InBoundsPos(below) && g.Wall(below.X, below.Y, below.Z) != Air {
		_, _ = g.Dig(below)
		g.AddFlag(below.X, below.Y, below.Z, HasRamp)
		// Dig gave the channeled tile a floor; a channel never has one.
		g.flags[i] = NoFlags
	}
	return old, nil
}

func (g *Grid) carve(p Pos, extra TileFlag) (TileType, error) {
	if err := g.checkEdit(p); err != nil {
		return Air, err
	}
	i := g.index(p.X, p.Y, p.Z)
	old := g.walls[i]
	g.walls[i] = Air
	g.flags[i] = Walkable | HasFloor | extra
	return old, nil
}

func (g *Grid) CarveStairUp(p Pos) (TileType, error) { return g.carve(p, HasStairUp) }

func (g *Grid) CarveStairDown(p Pos) (TileType, error) { return g.carve(p, HasStairDown) }

func (g *Grid) CarveStairUpDown(p Pos) (TileType, error) {
	return g.carve(p, HasStairUp|HasStairDown)
}
