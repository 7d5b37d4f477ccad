package world

import "time"

// Metrics is a read-only view of the last tick, safe to read from any
// goroutine.
type Metrics struct {
	Tick            uint64  `json:"tick"`
	Alive           int     `json:"alive"`
	Dead            int     `json:"dead"`
	Moves           int     `json:"moves"`
	Decisions       int     `json:"decisions"`
	DeathsTotal     uint64  `json:"deaths_total"`
	PendingSearches int     `json:"pending_searches"`
	QueuedEdits     int     `json:"queued_edits"`
	StepMS          float64 `json:"step_ms"`
}

func (w *World) Metrics() Metrics {
	if w == nil {
		return Metrics{}
	}
	m, _ := w.metrics.Load().(Metrics)
	return m
}

func (w *World) storeMetrics(e TickLogEntry, pending int, took time.Duration) {
	prev := w.Metrics()
	w.metrics.Store(Metrics{
		Tick:            e.Tick,
		Alive:           e.Alive,
		Dead:            e.Dead,
		Moves:           e.Moves,
		Decisions:       e.Decisions,
		DeathsTotal:     prev.DeathsTotal + uint64(len(e.Deaths)),
		PendingSearches: pending,
		QueuedEdits:     w.QueuedEdits(),
		StepMS:          float64(took.Microseconds()) / 1000,
	})
}
