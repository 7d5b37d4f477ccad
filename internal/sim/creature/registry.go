package creature

import (
	"sort"

	"dwarfhold.dev/internal/sim/grid"
)

// Registry owns all creatures and a position index derived from them. Every
// mutation updates both. Dead creatures stay registered.
//
// A Registry is not safe for concurrent use; the world serializes access.
type Registry struct {
	byID    map[string]*Creature
	spatial map[grid.Pos]map[string]struct{}
	nextSeq uint64
}

func NewRegistry() *Registry {
	return &Registry{
		byID:    map[string]*Creature{},
		spatial: map[grid.Pos]map[string]struct{}{},
	}
}

// Add registers c. Adding an id that is already present replaces the old
// entry in both structures.
func (r *Registry) Add(c *Creature) {
	if old, ok := r.byID[c.ID]; ok {
		r.unindex(old)
	}
	r.nextSeq++
	c.seq = r.nextSeq
	r.byID[c.ID] = c
	r.index(c)
}

// Remove unregisters id and returns the removed creature.
func (r *Registry) Remove(id string) (*Creature, bool) {
	c, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	delete(r.byID, id)
	r.unindex(c)
	return c, true
}

func (r *Registry) Get(id string) (*Creature, bool) {
	c, ok := r.byID[id]
	return c, ok
}

func (r *Registry) Len() int { return len(r.byID) }

// At returns every registered creature standing on p, dead ones included,
// ordered by registration.
func (r *Registry) At(p grid.Pos) []*Creature {
	ids := r.spatial[p]
	if len(ids) == 0 {
		return nil
	}
	out := make([]*Creature, 0, len(ids))
	for id := range ids {
		if c, ok := r.byID[id]; ok {
			out = append(out, c)
		}
	}
	sortBySeq(out)
	return out
}

// Move is the only way to change a creature's position.
func (r *Registry) Move(c *Creature, to grid.Pos) {
	if cur, ok := r.byID[c.ID]; !ok || cur != c {
		c.pos = to
		return
	}
	r.unindex(c)
	c.pos = to
	r.index(c)
}

// Snapshot returns the creatures in registration order. The slice is a copy,
// so callers may add or remove while iterating it.
func (r *Registry) Snapshot() []*Creature {
	out := make([]*Creature, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	sortBySeq(out)
	return out
}

// Counts returns the number of live and dead creatures.
func (r *Registry) Counts() (alive, dead int) {
	for _, c := range r.byID {
		if c.Alive {
			alive++
		} else {
			dead++
		}
	}
	return alive, dead
}

func (r *Registry) index(c *Creature) {
	set := r.spatial[c.pos]
	if set == nil {
		set = map[string]struct{}{}
		r.spatial[c.pos] = set
	}
	set[c.ID] = struct{}{}
}

func (r *Registry) unindex(c *Creature) {
	set := r.spatial[c.pos]
	if set == nil {
		return
	}
	delete(set, c.ID)
	if len(set) == 0 {
		delete(r.spatial, c.pos)
	}
}

func sortBySeq(cs []*Creature) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].seq < cs[j].seq })
}
