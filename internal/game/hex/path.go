package hex

import (
	"container/heap"
	"sort"
)

// Query describes one reachability search for a single unit.
type Query struct {
	From  Coord
	Enemy Coord
	// Budget is the action points available for movement.
	Budget int
	// ZOCPenalty is added to the cost of any cell adjacent to Enemy.
	ZOCPenalty int
	// Disengaging charges the whole Budget for any destination, modelling a
	// unit that starts its activation in contact and spends everything to break away.
	Disengaging bool
}

// Reach is the result of a reachability search.
//
// Invariant: the enemy cell and impassable cells never appear; From appears at cost 0.
type Reach struct {
	q    Query
	cost map[Coord]int
	prev map[Coord]Coord
}

// EnterCost returns the action points needed to step onto c for a unit whose
// opponent stands on enemy: the terrain cost plus zocPenalty when c is adjacent
// to enemy. It returns Impassable for the enemy cell and off-grid cells.
func (g *Grid) EnterCost(c, enemy Coord, zocPenalty int) int {
	if c == enemy {
		return Impassable
	}
	cost := g.Cost(c)
	if cost == Impassable {
		return Impassable
	}
	if Adjacent(c, enemy) {
		cost += max(zocPenalty, 0)
	}
	return cost
}

// Reachable runs a uniform-cost search from q.From and returns every cell
// whose cheapest path costs at most q.Budget.
//
// Precondition: q.From is on the grid.
// Postcondition: Reach never contains q.Enemy; every ZOC cell costs at least
// 1+ZOCPenalty to enter.
func (g *Grid) Reachable(q Query) Reach {
	res := Reach{q: q, cost: map[Coord]int{q.From: 0}, prev: map[Coord]Coord{}}
	pq := &frontier{{coord: q.From, cost: 0}}
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(node)
		if cur.cost > res.cost[cur.coord] {
			continue
		}
		for _, n := range cur.coord.Neighbors() {
			step := g.EnterCost(n, q.Enemy, q.ZOCPenalty)
			if step == Impassable {
				continue
			}
			next := cur.cost + step
			if next > q.Budget {
				continue
			}
			if known, seen := res.cost[n]; seen && known <= next {
				continue
			}
			res.cost[n] = next
			res.prev[n] = cur.coord
			heap.Push(pq, node{coord: n, cost: next})
		}
	}
	return res
}

// Cost returns the action points a move to c consumes, and false when c is
// not reachable. The origin costs 0.
func (r Reach) Cost(c Coord) (int, bool) {
	cost, ok := r.cost[c]
	if !ok {
		return 0, false
	}
	if r.q.Disengaging && c != r.q.From {
		return r.q.Budget, true
	}
	return cost, true
}

// Contains reports whether c is reachable.
func (r Reach) Contains(c Coord) bool {
	_, ok := r.cost[c]
	return ok
}

// Path returns the cells stepped through to reach c, excluding the origin.
func (r Reach) Path(c Coord) ([]Coord, bool) {
	if !r.Contains(c) {
		return nil, false
	}
	var rev []Coord
	for at := c; at != r.q.From; at = r.prev[at] {
		rev = append(rev, at)
	}
	path := make([]Coord, len(rev))
	for i, p := range rev {
		path[len(rev)-1-i] = p
	}
	return path, true
}

// Destinations returns every reachable cell other than the origin, ordered by
// (Q, R).
func (r Reach) Destinations() []Coord {
	out := make([]Coord, 0, len(r.cost))
	for c := range r.cost {
		if c != r.q.From {
			out = append(out, c)
		}
	}
	sortCoords(out)
	return out
}

type node struct {
	coord Coord
	cost  int
}

// frontier is a min-heap of nodes by cost, ties broken by coordinate so the
// search is deterministic.
type frontier []node

func (f frontier) Len() int { return len(f) }
func (f frontier) Less(i, j int) bool {
	if f[i].cost != f[j].cost {
		return f[i].cost < f[j].cost
	}
	return coordLess(f[i].coord, f[j].coord)
}
func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x any)   { *f = append(*f, x.(node)) }
func (f *frontier) Pop() any {
	old := *f
	n := old[len(old)-1]
	*f = old[:len(old)-1]
	return n
}

func coordLess(a, b Coord) bool {
	if a.Q != b.Q {
		return a.Q < b.Q
	}
	return a.R < b.R
}

func sortCoords(cs []Coord) {
	sort.Slice(cs, func(i, j int) bool { return coordLess(cs[i], cs[j]) })
}
