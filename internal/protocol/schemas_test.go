package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"dwarfhold.dev/internal/protocol"
	"dwarfhold.dev/internal/sim/creature"
	"dwarfhold.dev/internal/sim/grid"
)

func compile(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	p := filepath.Join("..", "..", "schemas", name)
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

// validate round-trips v through JSON so the schema sees exactly what goes
// on the wire.
func validate(t *testing.T, s *jsonschema.Schema, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := s.Validate(doc); err != nil {
		t.Fatalf("validate %s: %v", b, err)
	}
}

func sampleLevel() (walls, floors []grid.TileType, flags []grid.TileFlag) {
	g := grid.MustNew(4, 3, 2)
	g.FillLevel(1, grid.Air, grid.Grass, grid.Walkable|grid.HasFloor)
	g.SetWall(1, 1, 1, grid.Water)
	walls, floors, flags, _ = g.Level(1)
	return walls, floors, flags
}

func TestSchemas_ServerMessages(t *testing.T) {
	d := creature.NewWithID("c1", "Urist", creature.Dwarf, grid.P(3, 4, 40))
	cat := creature.NewWithID("c2", "Tabby", creature.Cat, grid.P(5, 4, 40))
	cat.JobID = "01J0000000000000000000000"

	validate(t, compile(t, "snapshot.schema.json"), protocol.SnapshotMsg{
		Type:            protocol.TypeSnapshot,
		ProtocolVersion: protocol.Version,
		Width:           128, Height: 128, Depth: 64, SurfaceZ: 40,
		Creatures: []creature.DisplayRecord{d.Record(), cat.Record()},
		Items:     []any{},
	})

	walls, floors, flags := sampleLevel()
	zs := compile(t, "z_level.schema.json")
	plain := protocol.NewZLevel(1, 4, 3, walls, floors, flags)
	if len(plain.Tiles) != 3 || len(plain.Tiles[0]) != 4 || plain.Tiles[1][1].W != grid.Water {
		t.Fatalf("tiles not indexed [y][x]: %+v", plain.Tiles)
	}
	validate(t, zs, plain)
	validate(t, zs, protocol.NewZLevelRLE(1, 4, 3, walls, floors, flags))

	validate(t, compile(t, "delta.schema.json"), protocol.DeltaMsg{
		Type:      protocol.TypeDelta,
		Tick:      12,
		Tiles:     []protocol.TileChange{{X: 1, Y: 2, Z: 3, Wall: grid.Air, Floor: grid.Stone, Flags: grid.Walkable | grid.HasRamp}},
		Creatures: []creature.DisplayRecord{d.Record()},
	})
	validate(t, compile(t, "pause_state.schema.json"), protocol.PauseStateMsg{Type: protocol.TypePauseState, Paused: true})
	validate(t, compile(t, "error.schema.json"), protocol.NewError(protocol.ErrBadEdit, "unknown op"))
}

func TestSchemas_ClientMessages(t *testing.T) {
	validate(t, compile(t, "request_z_level.schema.json"), protocol.RequestZLevelMsg{Type: protocol.TypeRequestZLevel, Z: 41, Encoding: protocol.EncodingRLE})
	validate(t, compile(t, "pause.schema.json"), protocol.PauseMsg{Type: protocol.TypePause})
	validate(t, compile(t, "designate.schema.json"), protocol.DesignateMsg{Type: protocol.TypeDesignate, Kind: "dig", X1: 1, Y1: 1, X2: 4, Y2: 4, Z: 39})
	validate(t, compile(t, "terrain_edit.schema.json"), protocol.TerrainEditMsg{Type: protocol.TypeTerrainEdit, Op: "CHANNEL", X: 1, Y: 2, Z: 39})
}

func TestSchemas_RejectBadSamples(t *testing.T) {
	s := compile(t, "terrain_edit.schema.json")
	var doc any
	_ = json.Unmarshal([]byte(`{"type":"terrain_edit","op":"FLOOD","x":1,"y":1,"z":1}`), &doc)
	if err := s.Validate(doc); err == nil {
		t.Fatalf("unknown op passed schema")
	}
}

func TestDeltaEmpty(t *testing.T) {
	if !(protocol.DeltaMsg{Type: protocol.TypeDelta}).Empty() {
		t.Fatalf("empty delta not empty")
	}
}
