package hex

import (
	"fmt"
	"sort"
	"strings"
)

// Impassable is the movement cost of a cell no unit may enter.
const Impassable = 0

// Cell is one grid position and the action points needed to enter it.
type Cell struct {
	Coord Coord
	Cost  int
}

// CostFunc assigns a movement cost to a coordinate. Values below 1 mark the
// cell impassable.
type CostFunc func(Coord) int

// Open is a CostFunc where every cell costs 1.
func Open(Coord) int { return 1 }

// Grid is a bounded hexagonal grid of the given radius centred on (0,0).
//
// Invariant: every coordinate within radius has exactly one cell; costs are
// Impassable or >= 1.
type Grid struct {
	radius int
	cells  map[Coord]int
}

// NewGrid builds a grid of radius r, costing every cell with cost.
//
// Precondition: r >= 1; cost must be non-nil.
func NewGrid(r int, cost CostFunc) *Grid {
	if r < 1 {
		panic(fmt.Sprintf("hex.NewGrid: radius must be >= 1, got %d", r))
	}
	g := &Grid{radius: r, cells: make(map[Coord]int)}
	origin := Coord{}
	for q := -r; q <= r; q++ {
		for rr := -r; rr <= r; rr++ {
			c := Coord{Q: q, R: rr}
			if Distance(origin, c) > r {
				continue
			}
			g.cells[c] = max(cost(c), Impassable)
		}
	}
	return g
}

// Radius returns the grid radius.
func (g *Grid) Radius() int { return g.radius }

// Contains reports whether c lies on the grid.
func (g *Grid) Contains(c Coord) bool {
	_, ok := g.cells[c]
	return ok
}

// Cost returns the movement cost of c, or Impassable when c is off the grid.
func (g *Grid) Cost(c Coord) int { return g.cells[c] }

// Passable reports whether a unit may stand on c.
func (g *Grid) Passable(c Coord) bool { return g.Cost(c) != Impassable }

// SetCost overrides the cost of c.
//
// Precondition: c is on the grid.
func (g *Grid) SetCost(c Coord, cost int) {
	if !g.Contains(c) {
		return
	}
	g.cells[c] = max(cost, Impassable)
}

// Cells returns every cell ordered by (Q, R) so iteration is deterministic.
func (g *Grid) Cells() []Cell {
	out := make([]Cell, 0, len(g.cells))
	for c, cost := range g.cells {
		out = append(out, Cell{Coord: c, Cost: cost})
	}
	sort.Slice(out, func(i, j int) bool { return coordLess(out[i].Coord, out[j].Coord) })
	return out
}

// Render draws the grid row by row for logs and the CLI. marks overrides the
// glyph for specific cells.
func (g *Grid) Render(marks map[Coord]rune) string {
	var b strings.Builder
	for r := -g.radius; r <= g.radius; r++ {
		b.WriteString(strings.Repeat(" ", abs(r)))
		for q := -g.radius; q <= g.radius; q++ {
			c := Coord{Q: q, R: r}
			if !g.Contains(c) {
				continue
			}
			glyph := '.'
			switch cost := g.Cost(c); {
			case cost == Impassable:
				glyph = '#'
			case cost > 1:
				glyph = rune('0' + min(cost, 9))
			}
			if m, ok := marks[c]; ok {
				glyph = m
			}
			b.WriteRune(glyph)
			b.WriteByte(' ')
		}
		b.WriteByte('\n')
	}
	return b.String()
}
