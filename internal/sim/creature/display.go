package creature

import "math"

// DisplayRecord is the flat per-creature view handed to the transport layer.
type DisplayRecord struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Kind   Kind    `json:"type"`
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Z      int     `json:"z"`
	Char   string  `json:"char"`
	Color  string  `json:"color"`
	Alive  bool    `json:"alive"`
	Hunger float64 `json:"hunger"`
	Thirst float64 `json:"thirst"`
	Energy float64 `json:"energy"`
	JobID  *string `json:"job_id"`
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func (c *Creature) Record() DisplayRecord {
	glyph, color := c.Display()
	rec := DisplayRecord{
		ID:     c.ID,
		Name:   c.Name,
		Kind:   c.Kind,
		X:      c.pos.X,
		Y:      c.pos.Y,
		Z:      c.pos.Z,
		Char:   glyph,
		Color:  color,
		Alive:  c.Alive,
		Hunger: round1(c.Hunger),
		Thirst: round1(c.Thirst),
		Energy: round1(c.Energy),
	}
	if c.JobID != "" {
		id := c.JobID
		rec.JobID = &id
	}
	return rec
}

// DisplayRecords lists every creature in registration order.
func (r *Registry) DisplayRecords() []DisplayRecord {
	cs := r.Snapshot()
	out := make([]DisplayRecord, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Record())
	}
	return out
}
