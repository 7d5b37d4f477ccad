package encoding

import (
	"testing"

	"dwarfhold.dev/internal/sim/grid"
)

func TestRLE_RoundTrip(t *testing.T) {
	in := make([]uint16, 0, 200)
	in = append(in, 1, 1, 1, 2, 2, 3)
	for i := 0; i < 50; i++ {
		in = append(in, 7)
	}
	in = append(in, 9, 10, 10, 10)

	enc := EncodeRLE(in)
	out, err := DecodeRLE(enc, 0)
	if err != nil {
		t.Fatalf("DecodeRLE: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("len mismatch: got %d want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("mismatch at %d: got %d want %d", i, out[i], in[i])
		}
	}
}

func TestRLE_Limit(t *testing.T) {
	enc := EncodeRLE(make([]uint8, 100))
	if _, err := DecodeRLE(enc, 99); err == nil {
		t.Fatalf("expected limit error")
	}
	if out, err := DecodeRLE(enc, 100); err != nil || len(out) != 100 {
		t.Fatalf("len=%d err=%v", len(out), err)
	}
}

func TestRLE_Garbage(t *testing.T) {
	if _, err := DecodeRLE("!!!", 0); err == nil {
		t.Fatalf("bad base64 accepted")
	}
	if _, err := DecodeRLE("gA==", 0); err == nil {
		t.Fatalf("truncated varint accepted")
	}
}

func TestLevel_RoundTrip(t *testing.T) {
	g := grid.MustNew(8, 4, 2)
	g.FillLevel(1, grid.Air, grid.Grass, grid.Walkable|grid.HasFloor)
	g.SetWall(2, 1, 1, grid.Water)
	g.SetFlags(3, 3, 1, grid.HasStairDown|grid.Designated)
	walls, floors, flags, _ := g.Level(1)

	l := EncodeLevel(walls, floors, flags)
	w2, f2, fl2, err := DecodeLevel(l, 32)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range walls {
		if w2[i] != walls[i] || f2[i] != floors[i] || fl2[i] != flags[i] {
			t.Fatalf("tile %d differs", i)
		}
	}
	if _, _, _, err := DecodeLevel(l, 33); err == nil {
		t.Fatalf("short layer accepted")
	}
}
