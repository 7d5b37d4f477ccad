package grid

import (
	"fmt"

	"dwarfhold.dev/internal/sim/logic/mathx"
)

// Pos is a tile coordinate. It is a plain value: comparable and usable as a map key.
type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func P(x, y, z int) Pos { return Pos{X: x, Y: y, Z: z} }

func (p Pos) Add(dx, dy, dz int) Pos { return Pos{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz} }

// Manhattan is the 3D taxicab distance.
func (p Pos) Manhattan(o Pos) int {
	return mathx.AbsInt(p.X-o.X) + mathx.AbsInt(p.Y-o.Y) + mathx.AbsInt(p.Z-o.Z)
}

func (p Pos) Array() [3]int { return [3]int{p.X, p.Y, p.Z} }

func (p Pos) String() string { return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z) }
