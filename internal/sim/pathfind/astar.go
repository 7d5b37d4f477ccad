package pathfind

import (
	"container/heap"
	"context"

	"dwarfhold.dev/internal/sim/grid"
)

// DefaultMaxIterations is the budget used for long-range searches.
const DefaultMaxIterations = 10000

// Graph is the read-only view a search walks. Both *grid.Grid and
// *grid.Topology satisfy it.
type Graph interface {
	IsWalkable(x, y, z int) bool
	AppendNeighbors3D(buf []grid.Pos, p grid.Pos) []grid.Pos
}

type Outcome uint8

const (
	Found Outcome = iota + 1
	SameTile
	GoalUnwalkable
	Unreachable
	Exhausted
	Canceled
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "FOUND"
	case SameTile:
		return "SAME_TILE"
	case GoalUnwalkable:
		return "GOAL_UNWALKABLE"
	case Unreachable:
		return "UNREACHABLE"
	case Exhausted:
		return "EXHAUSTED"
	case Canceled:
		return "CANCELED"
	default:
		return "UNKNOWN"
	}
}

// Result carries the path (start..goal inclusive) when one was produced.
type Result struct {
	Path       []grid.Pos
	Outcome    Outcome
	Iterations int
}

// OK reports whether a path was produced. All other outcomes mean "stay put".
func (r Result) OK() bool { return r.Outcome == Found || r.Outcome == SameTile }

const (
	stepCost     = 1
	verticalCost = 2

	// How many expansions run between cancellation checks.
	cancelCheckEvery = 64
)

type node struct {
	pos grid.Pos
	f   int
	seq uint64
}

// openSet orders by f-score, then by insertion sequence so equal-cost
// candidates expand in first-discovered order.
type openSet []node

func (s openSet) Len() int { return len(s) }
func (s openSet) Less(i, j int) bool {
	if s[i].f != s[j].f {
		return s[i].f < s[j].f
	}
	return s[i].seq < s[j].seq
}
func (s openSet) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s *openSet) Push(x any)   { *s = append(*s, x.(node)) }
func (s *openSet) Pop() any {
	old := *s
	n := len(old)
	it := old[n-1]
	*s = old[:n-1]
	return it
}

// FindPath runs Search and collapses the outcome: a path, or false.
func FindPath(g Graph, start, goal grid.Pos, maxIterations int) ([]grid.Pos, bool) {
	res := Search(context.Background(), g, start, goal, maxIterations)
	return res.Path, res.OK()
}

// Search is a 3D A* over g. Horizontal steps cost 1 and vertical transitions
// cost 2; the heuristic is 3D Manhattan distance, which never overestimates.
// The search gives up after maxIterations frontier pops; a budget of zero or
// less expands nothing and reports Exhausted.
func Search(ctx context.Context, g Graph, start, goal grid.Pos, maxIterations int) Result {
	if start == goal {
		return Result{Path: []grid.Pos{start}, Outcome: SameTile}
	}
	if !g.IsWalkable(goal.X, goal.Y, goal.Z) {
		return Result{Outcome: GoalUnwalkable}
	}
	var seq uint64
	open := &openSet{{pos: start, f: 0, seq: seq}}
	gScore := map[grid.Pos]int{start: 0}
	cameFrom := map[grid.Pos]grid.Pos{}
	nbuf := make([]grid.Pos, 0, 8)

	iterations := 0
	for open.Len() > 0 && iterations < maxIterations {
		if iterations%cancelCheckEvery == 0 && ctx.Err() != nil {
			return Result{Outcome: Canceled, Iterations: iterations}
		}
		iterations++
		cur := heap.Pop(open).(node)
		if cur.pos == goal {
			return Result{Path: reconstruct(cameFrom, start, goal), Outcome: Found, Iterations: iterations}
		}

		curG := gScore[cur.pos]
		nbuf = g.AppendNeighbors3D(nbuf[:0], cur.pos)
		for _, n := range nbuf {
			cost := stepCost
			if n.Z != cur.pos.Z {
				cost = verticalCost
			}
			tentative := curG + cost
			if prev, seen := gScore[n]; seen && tentative >= prev {
				continue
			}
			gScore[n] = tentative
			cameFrom[n] = cur.pos
			seq++
			heap.Push(open, node{pos: n, f: tentative + n.Manhattan(goal), seq: seq})
		}
	}
	if open.Len() == 0 {
		return Result{Outcome: Unreachable, Iterations: iterations}
	}
	return Result{Outcome: Exhausted, Iterations: iterations}
}

func reconstruct(cameFrom map[grid.Pos]grid.Pos, start, goal grid.Pos) []grid.Pos {
	var rev []grid.Pos
	for p := goal; p != start; p = cameFrom[p] {
		rev = append(rev, p)
	}
	rev = append(rev, start)
	path := make([]grid.Pos, len(rev))
	for i, p := range rev {
		path[len(rev)-1-i] = p
	}
	return path
}
