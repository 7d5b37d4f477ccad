package protocol

import (
	"dwarfhold.dev/internal/sim/creature"
	"dwarfhold.dev/internal/sim/encoding"
	"dwarfhold.dev/internal/sim/grid"
)

// SNAPSHOT (server -> client), sent once on connect.
type SnapshotMsg struct {
	Type            string                   `json:"type"`
	ProtocolVersion string                   `json:"protocol_version"`
	Tick            uint64                   `json:"tick"`
	Paused          bool                     `json:"paused"`
	Width           int                      `json:"width"`
	Height          int                      `json:"height"`
	Depth           int                      `json:"depth"`
	SurfaceZ        int                      `json:"surface_z"`
	Creatures       []creature.DisplayRecord `json:"creatures"`
	Items           []any                    `json:"items"`
}

// Tile is the compact per-tile form inside a z_level message.
type Tile struct {
	W  grid.TileType `json:"w"`
	F  grid.TileType `json:"f"`
	Fl grid.TileFlag `json:"fl"`
}

// Z_LEVEL (server -> client). Tiles is indexed [y][x].
type ZLevelMsg struct {
	Type  string   `json:"type"`
	Z     int      `json:"z"`
	Tiles [][]Tile `json:"tiles"`
}

// Z_LEVEL with run-length encoded layers, row-major by y then x.
type ZLevelRLEMsg struct {
	Type     string `json:"type"`
	Z        int    `json:"z"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Encoding string `json:"encoding"`
	Walls    string `json:"walls"`
	Floors   string `json:"floors"`
	Flags    string `json:"flags"`
}

func NewZLevel(z, width, height int, walls, floors []grid.TileType, flags []grid.TileFlag) ZLevelMsg {
	rows := make([][]Tile, height)
	for y := 0; y < height; y++ {
		row := make([]Tile, width)
		for x := 0; x < width; x++ {
			i := y*width + x
			row[x] = Tile{W: walls[i], F: floors[i], Fl: flags[i]}
		}
		rows[y] = row
	}
	return ZLevelMsg{Type: TypeZLevel, Z: z, Tiles: rows}
}

func NewZLevelRLE(z, width, height int, walls, floors []grid.TileType, flags []grid.TileFlag) ZLevelRLEMsg {
	l := encoding.EncodeLevel(walls, floors, flags)
	return ZLevelRLEMsg{
		Type:     TypeZLevel,
		Z:        z,
		Width:    width,
		Height:   height,
		Encoding: EncodingRLE,
		Walls:    l.Walls,
		Floors:   l.Floors,
		Flags:    l.Flags,
	}
}

type TileChange struct {
	X     int           `json:"x"`
	Y     int           `json:"y"`
	Z     int           `json:"z"`
	Wall  grid.TileType `json:"wall"`
	Floor grid.TileType `json:"floor"`
	Flags grid.TileFlag `json:"flags"`
}

// DELTA (server -> client), sent after a tick that changed something.
type DeltaMsg struct {
	Type      string                   `json:"type"`
	Tick      uint64                   `json:"tick"`
	Tiles     []TileChange             `json:"tiles,omitempty"`
	Creatures []creature.DisplayRecord `json:"creatures,omitempty"`
}

// Empty reports whether the delta carries nothing worth sending.
func (d DeltaMsg) Empty() bool {
	return len(d.Tiles) == 0 && len(d.Creatures) == 0
}

type PauseStateMsg struct {
	Type   string `json:"type"`
	Paused bool   `json:"paused"`
}

type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewError(code, msg string) ErrorMsg {
	return ErrorMsg{Type: TypeError, Code: code, Message: msg}
}

// REQUEST_Z_LEVEL (client -> server).
type RequestZLevelMsg struct {
	Type     string `json:"type"`
	Z        int    `json:"z"`
	Encoding string `json:"encoding,omitempty"`
}

// PAUSE (client -> server) toggles the scheduler.
type PauseMsg struct {
	Type string `json:"type"`
}

// DESIGNATE (client -> server) marks a rectangle for work. Accepted and
// ignored until designations feed the job board.
type DesignateMsg struct {
	Type string `json:"type"`
	Kind string `json:"kind,omitempty"`
	X1   int    `json:"x1"`
	Y1   int    `json:"y1"`
	X2   int    `json:"x2"`
	Y2   int    `json:"y2"`
	Z    int    `json:"z"`
}

// TERRAIN_EDIT (client -> server), applied at the next tick boundary.
type TerrainEditMsg struct {
	Type string `json:"type"`
	Op   string `json:"op"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Z    int    `json:"z"`
}
