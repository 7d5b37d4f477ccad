package creature

type Kind string

const (
	Dwarf  Kind = "dwarf"
	Cat    Kind = "cat"
	Dog    Kind = "dog"
	Goblin Kind = "goblin"
)

type Labor string

const (
	LaborMining      Labor = "mining"
	LaborMasonry     Labor = "masonry"
	LaborCarpentry   Labor = "carpentry"
	LaborFarming     Labor = "farming"
	LaborCooking     Labor = "cooking"
	LaborBrewing     Labor = "brewing"
	LaborHauling     Labor = "hauling"
	LaborBuilding    Labor = "building"
	LaborWoodcutting Labor = "woodcutting"
	LaborHunting     Labor = "hunting"
	LaborFishing     Labor = "fishing"
	LaborCrafting    Labor = "crafting"
	LaborSmelting    Labor = "smelting"
	LaborSmithing    Labor = "smithing"
	LaborDoctoring   Labor = "doctoring"
)

// AllLabors lists every labor category in display order.
var AllLabors = []Labor{
	LaborMining, LaborMasonry, LaborCarpentry, LaborFarming, LaborCooking,
	LaborBrewing, LaborHauling, LaborBuilding, LaborWoodcutting, LaborHunting,
	LaborFishing, LaborCrafting, LaborSmelting, LaborSmithing, LaborDoctoring,
}

// Profile is the per-kind behavior data assembled at construction.
type Profile struct {
	HungerDecay float64
	ThirstDecay float64
	EnergyDecay float64
	Labors      []Labor
	Glyph       string
	Color       string
}

var baseProfile = Profile{
	HungerDecay: 0.02,
	ThirstDecay: 0.03,
	EnergyDecay: 0.015,
	Glyph:       "?",
	Color:       "#f0f",
}

// ProfileFor returns the behavior profile of a kind. Unknown kinds get the
// base decay rates and a placeholder glyph.
func ProfileFor(k Kind) Profile {
	p := baseProfile
	switch k {
	case Dwarf:
		p.Glyph, p.Color = "@", "#fff"
		p.Labors = []Labor{LaborMining, LaborHauling, LaborBuilding, LaborFarming, LaborCooking, LaborCrafting}
	case Cat, Dog:
		p.HungerDecay, p.ThirstDecay, p.EnergyDecay = 0.01, 0.015, 0.01
		if k == Cat {
			p.Glyph, p.Color = "c", "#c84"
		} else {
			p.Glyph, p.Color = "d", "#a60"
		}
	case Goblin:
		p.Glyph, p.Color = "g", "#0f0"
	}
	return p
}
