// Package hex provides the axial-coordinate hex grid used by the tactical
// field: coordinates, the six facings, a bounded grid with per-cell movement
// cost, and the action-point constrained reachability search.
package hex

import (
	"fmt"
	"strings"
)

// Coord is a position on the hex grid in axial coordinates.
// The third cube coordinate s is derived: s = -q - r.
type Coord struct {
	Q int `yaml:"q"`
	R int `yaml:"r"`
}

// S returns the implicit third cube coordinate.
func (c Coord) S() int { return -c.Q - c.R }

// Add returns c translated by d.
func (c Coord) Add(d Coord) Coord { return Coord{Q: c.Q + d.Q, R: c.R + d.R} }

// String renders c as "(q,r)".
func (c Coord) String() string { return fmt.Sprintf("(%d,%d)", c.Q, c.R) }

// Facing is one of the six hex directions. Facings are numbered
// counter-clockwise from east, so adjacent numbers are adjacent directions.
type Facing int

const (
	East Facing = iota
	NorthEast
	NorthWest
	West
	SouthWest
	SouthEast
)

// directions holds the axial offset of each facing.
var directions = [6]Coord{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

var facingNames = [6]string{"e", "ne", "nw", "w", "sw", "se"}

// String returns the short compass name of f.
func (f Facing) String() string {
	if f < 0 || f > 5 {
		return fmt.Sprintf("facing(%d)", int(f))
	}
	return facingNames[f]
}

// Normalize maps any integer facing onto [0, 6).
func (f Facing) Normalize() Facing { return Facing(((int(f) % 6) + 6) % 6) }

// Opposite returns the facing 180 degrees from f.
func (f Facing) Opposite() Facing { return (f + 3).Normalize() }

// Offset returns the axial step for f.
func (f Facing) Offset() Coord { return directions[f.Normalize()] }

// Turns returns the number of 60-degree steps between f and g (0..3).
func (f Facing) Turns(g Facing) int {
	d := int((g - f).Normalize())
	return min(d, 6-d)
}

// ParseFacing accepts a compass name ("ne") or a digit ("1").
func ParseFacing(s string) (Facing, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range facingNames {
		if s == n || s == fmt.Sprint(i) {
			return Facing(i), nil
		}
	}
	return 0, fmt.Errorf("unknown facing %q", s)
}

// Neighbor returns the coordinate one step from c toward f.
func (c Coord) Neighbor(f Facing) Coord { return c.Add(f.Offset()) }

// Neighbors returns the six adjacent coordinates, indexed by Facing.
func (c Coord) Neighbors() [6]Coord {
	var out [6]Coord
	for i, d := range directions {
		out[i] = c.Add(d)
	}
	return out
}

// Distance returns the hex distance between two coordinates.
func Distance(a, b Coord) int {
	return max(abs(a.Q-b.Q), abs(a.R-b.R), abs(a.S()-b.S()))
}

// Adjacent reports whether a and b are distinct neighbors.
func Adjacent(a, b Coord) bool { return Distance(a, b) == 1 }

// Bearing returns the facing from 'from' that most closely points toward 'to',
// using integer dot products against the cube direction vectors. For adjacent
// coordinates the result is exact. Ties resolve to the lower facing.
//
// Precondition: from != to (returns East otherwise).
func Bearing(from, to Coord) Facing {
	if from == to {
		return East
	}
	dq, dr, ds := to.Q-from.Q, to.R-from.R, to.S()-from.S()
	best, bestDot := East, -(1 << 30)
	for i, d := range directions {
		dot := dq*d.Q + dr*d.R + ds*d.S()
		if dot > bestDot {
			best, bestDot = Facing(i), dot
		}
	}
	return best
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
