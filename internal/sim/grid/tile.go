package grid

// TileType is the material filling a tile volume (wall) or covering its bottom (floor).
type TileType uint8

const (
	Air TileType = iota
	Soil
	Stone
	Granite
	Water
	Magma
	Grass
	IronOre
	CopperOre
	GoldOre
)

var tileNames = [...]string{
	Air:       "AIR",
	Soil:      "SOIL",
	Stone:     "STONE",
	Granite:   "GRANITE",
	Water:     "WATER",
	Magma:     "MAGMA",
	Grass:     "GRASS",
	IronOre:   "IRON_ORE",
	CopperOre: "COPPER_ORE",
	GoldOre:   "GOLD_ORE",
}

func (t TileType) String() string {
	if int(t) < len(tileNames) {
		return tileNames[t]
	}
	return "UNKNOWN"
}

// TileFlag is a bit set of per-tile properties. Bits are independent.
type TileFlag uint16

const (
	Walkable TileFlag = 1 << iota
	Diggable
	HasFloor
	HasStairUp
	HasStairDown
	HasRamp
	HasBuilding
	Designated

	NoFlags TileFlag = 0
)

func (f TileFlag) Has(bit TileFlag) bool { return f&bit != 0 }

// MaxLiquid is the deepest liquid level a tile can hold.
const MaxLiquid = 7
