package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"dwarfhold.dev/internal/sim/grid"
)

// Value is any tile layer element.
type Value interface {
	~uint8 | ~uint16
}

// EncodeRLE encodes a layer into base64(varint pairs).
// The pairs are (value, run_len) repeated.
func EncodeRLE[T Value](vals []T) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	i := 0
	for i < len(vals) {
		v := vals[i]
		run := 1
		for j := i + 1; j < len(vals) && vals[j] == v && run < 1<<31; j++ {
			run++
		}

		n := binary.PutUvarint(tmp[:], uint64(v))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:n])

		i += run
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// DecodeRLE expands an encoded layer. limit caps the decoded length; pass 0
// for no cap.
func DecodeRLE(b64 string, limit int) ([]uint16, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	var out []uint16
	for i := 0; i < len(raw); {
		v, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if v > 0xFFFF {
			return nil, fmt.Errorf("value too large: %d", v)
		}
		if limit > 0 && uint64(len(out))+run > uint64(limit) {
			return nil, fmt.Errorf("decoded length exceeds %d", limit)
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, uint16(v))
		}
	}
	return out, nil
}

// Level is one z-level with each layer run-length encoded.
type Level struct {
	Walls  string
	Floors string
	Flags  string
}

func EncodeLevel(walls, floors []grid.TileType, flags []grid.TileFlag) Level {
	return Level{
		Walls:  EncodeRLE(walls),
		Floors: EncodeRLE(floors),
		Flags:  EncodeRLE(flags),
	}
}

// DecodeLevel expands l, requiring every layer to hold exactly size tiles.
func DecodeLevel(l Level, size int) (walls, floors []grid.TileType, flags []grid.TileFlag, err error) {
	layer := func(name, s string) ([]uint16, error) {
		vals, err := DecodeRLE(s, size)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if len(vals) != size {
			return nil, fmt.Errorf("%s: got %d tiles want %d", name, len(vals), size)
		}
		return vals, nil
	}
	w, err := layer("walls", l.Walls)
	if err != nil {
		return nil, nil, nil, err
	}
	f, err := layer("floors", l.Floors)
	if err != nil {
		return nil, nil, nil, err
	}
	fl, err := layer("flags", l.Flags)
	if err != nil {
		return nil, nil, nil, err
	}
	walls = make([]grid.TileType, size)
	floors = make([]grid.TileType, size)
	flags = make([]grid.TileFlag, size)
	for i := 0; i < size; i++ {
		if w[i] > 0xFF || f[i] > 0xFF {
			return nil, nil, nil, fmt.Errorf("tile type out of range at %d", i)
		}
		walls[i] = grid.TileType(w[i])
		floors[i] = grid.TileType(f[i])
		flags[i] = grid.TileFlag(fl[i])
	}
	return walls, floors, flags, nil
}
