package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"
)

// StateDigest hashes the grid and every creature in spawn order. Two runs
// with the same seed and inputs produce the same digest at the same tick.
func (w *World) StateDigest() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stateDigest(w.tick)
}

func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, nowTick)
	digestWriteU64(h, &tmp, uint64(w.grid.Width()))
	digestWriteU64(h, &tmp, uint64(w.grid.Height()))
	digestWriteU64(h, &tmp, uint64(w.grid.Depth()))

	walls, floors, flags, liquid := w.grid.Raw()
	buf := make([]byte, 0, len(walls))
	for _, t := range walls {
		buf = append(buf, byte(t))
	}
	h.Write(buf)
	buf = buf[:0]
	for _, t := range floors {
		buf = append(buf, byte(t))
	}
	h.Write(buf)
	buf = buf[:0]
	for _, f := range flags {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(f))
	}
	h.Write(buf)
	h.Write(liquid)

	for _, c := range w.reg.Snapshot() {
		h.Write([]byte(c.ID))
		h.Write([]byte{0, boolByte(c.Alive)})
		p := c.Pos()
		digestWriteI64(h, &tmp, int64(p.X))
		digestWriteI64(h, &tmp, int64(p.Y))
		digestWriteI64(h, &tmp, int64(p.Z))
		digestWriteU64(h, &tmp, math.Float64bits(c.Hunger))
		digestWriteU64(h, &tmp, math.Float64bits(c.Thirst))
		digestWriteU64(h, &tmp, math.Float64bits(c.Energy))
		digestWriteU64(h, &tmp, uint64(c.PathIndex))
		digestWriteU64(h, &tmp, uint64(len(c.Path)))
		digestWriteI64(h, &tmp, int64(c.MoveCooldown))
		h.Write([]byte(c.JobID))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func digestWriteU64(h hash.Hash, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hash.Hash, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
