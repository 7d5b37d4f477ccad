package world

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"dwarfhold.dev/internal/sim/grid"
)

type EditOp string

const (
	OpDig            EditOp = "DIG"
	OpChannel        EditOp = "CHANNEL"
	OpCarveStairUp   EditOp = "CARVE_STAIR_UP"
	OpCarveStairDown EditOp = "CARVE_STAIR_DOWN"
	OpCarveStairBoth EditOp = "CARVE_STAIR_UPDOWN"
)

// Edit is a terrain edit request.
type Edit struct {
	Op     EditOp
	Pos    grid.Pos
	Actor  string
	Reason string
}

func (op EditOp) Valid() bool {
	switch op {
	case OpDig, OpChannel, OpCarveStairUp, OpCarveStairDown, OpCarveStairBoth:
		return true
	}
	return false
}

// QueueEdit schedules e for the start of the next tick.
func (w *World) QueueEdit(e Edit) error {
	if !e.Op.Valid() {
		return fmt.Errorf("queue edit: unknown op %q", e.Op)
	}
	if !w.grid.InBoundsPos(e.Pos) {
		return fmt.Errorf("queue edit %s %v: %w", e.Op, e.Pos, grid.ErrOutOfBounds)
	}
	w.editMu.Lock()
	w.edits = append(w.edits, e)
	w.editMu.Unlock()
	return nil
}

func (w *World) QueuedEdits() int {
	w.editMu.Lock()
	defer w.editMu.Unlock()
	return len(w.edits)
}

// ApplyEdit runs e right away between ticks and returns the previous wall.
func (w *World) ApplyEdit(e Edit) (grid.TileType, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	prev, err := w.applyEdit(w.tick, e)
	w.refreshTopology()
	return prev, err
}

func (w *World) Dig(p grid.Pos) (grid.TileType, error) {
	return w.ApplyEdit(Edit{Op: OpDig, Pos: p})
}

func (w *World) Channel(p grid.Pos) (grid.TileType, error) {
	return w.ApplyEdit(Edit{Op: OpChannel, Pos: p})
}

func (w *World) CarveStairUp(p grid.Pos) (grid.TileType, error) {
	return w.ApplyEdit(Edit{Op: OpCarveStairUp, Pos: p})
}

func (w *World) CarveStairDown(p grid.Pos) (grid.TileType, error) {
	return w.ApplyEdit(Edit{Op: OpCarveStairDown, Pos: p})
}

func (w *World) CarveStairUpDown(p grid.Pos) (grid.TileType, error) {
	return w.ApplyEdit(Edit{Op: OpCarveStairBoth, Pos: p})
}

// applyQueuedEdits drains the edit queue. Caller holds w.mu.
func (w *World) applyQueuedEdits(tick uint64) {
	w.editMu.Lock()
	edits := w.edits
	w.edits = nil
	w.editMu.Unlock()

	for _, e := range edits {
		if _, err := w.applyEdit(tick, e); err != nil {
			w.log.Warn("terrain edit rejected", zap.String("op", string(e.Op)), zap.Stringer("pos", e.Pos), zap.Error(err))
		}
	}
}

// applyEdit mutates the grid and records the change. Caller holds w.mu.
func (w *World) applyEdit(tick uint64, e Edit) (grid.TileType, error) {
	var (
		prev grid.TileType
		err  error
	)
	// Tiles an op can touch besides e.Pos.
	var touched []grid.Pos
	switch e.Op {
	case OpDig:
		prev, err = w.grid.Dig(e.Pos)
		touched = []grid.Pos{e.Pos.Add(0, 0, 1)}
	case OpChannel:
		prev, err = w.grid.Channel(e.Pos)
		touched = []grid.Pos{e.Pos.Add(0, 0, -1)}
	case OpCarveStairUp:
		prev, err = w.grid.CarveStairUp(e.Pos)
	case OpCarveStairDown:
		prev, err = w.grid.CarveStairDown(e.Pos)
	case OpCarveStairBoth:
		prev, err = w.grid.CarveStairUpDown(e.Pos)
	default:
		return grid.Air, fmt.Errorf("apply edit: unknown op %q", e.Op)
	}
	if err != nil {
		return prev, fmt.Errorf("apply edit %s %v: %w", e.Op, e.Pos, err)
	}

	w.terrainVersion++
	w.markChanged(e.Pos)
	for _, p := range touched {
		if w.grid.InBoundsPos(p) {
			w.markChanged(p)
		}
	}

	to := w.grid.Wall(e.Pos.X, e.Pos.Y, e.Pos.Z)
	w.log.Debug("terrain edit",
		zap.String("op", string(e.Op)),
		zap.Stringer("pos", e.Pos),
		zap.Stringer("from", prev),
	)
	if w.auditLogger != nil {
		_ = w.auditLogger.WriteAudit(AuditEntry{
			Tick:   tick,
			Actor:  e.Actor,
			Action: string(e.Op),
			Pos:    e.Pos.Array(),
			From:   uint8(prev),
			To:     uint8(to),
			Reason: e.Reason,
		})
	}
	return prev, nil
}

func (w *World) markChanged(p grid.Pos) {
	w.changed[p] = struct{}{}
}

// MarkTileChanged flags p for the next incremental sync.
func (w *World) MarkTileChanged(p grid.Pos) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.grid.InBoundsPos(p) {
		w.markChanged(p)
	}
}

// PopChangedTiles returns and clears the changed-tile set, ordered by z, y, x.
func (w *World) PopChangedTiles() []grid.Pos {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.changed) == 0 {
		return nil
	}
	out := make([]grid.Pos, 0, len(w.changed))
	for p := range w.changed {
		out = append(out, p)
	}
	w.changed = map[grid.Pos]struct{}{}
	sortPositions(out)
	return out
}

func sortPositions(ps []grid.Pos) {
	sort.Slice(ps, func(i, j int) bool {
		a, b := ps[i], ps[j]
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
}
