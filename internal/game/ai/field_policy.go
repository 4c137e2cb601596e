package ai

import (
	"github.com/cory-johannsen/castlesiege/internal/game/field"
	"github.com/cory-johannsen/castlesiege/internal/game/force"
	"github.com/cory-johannsen/castlesiege/internal/game/hex"
)

// FieldAction chooses the active unit's next step in the field battle shown
// by v. A unit strikes when adjacent, otherwise closes on the enemy; a
// shrewd commander prefers the cell in the enemy's rear or flank and turns
// to face the enemy after striking.
//
// Precondition: v.Active == side and the battle is unresolved.
// Postcondition: repeated calls end the activation; every Move strictly
// reduces the distance to the enemy.
func (p *Policy) FieldAction(side force.Side, v field.View, arch Archetype) field.Action {
	u, e := v.Units[side], v.Units[side.Opponent()]
	shrewd := Shrewdness(u.Stats.Intelligence) >= p.params.ShrewdCutoff

	if hex.Adjacent(u.Pos, e.Pos) {
		if !u.Attacked() && u.AP >= 1 {
			return field.Attack()
		}
		want := hex.Bearing(u.Pos, e.Pos)
		if shrewd && u.Facing != want && v.Params.FacingCost(u.Facing, want) <= u.AP {
			return field.Face(want)
		}
		return field.EndTurn()
	}

	if side == force.SideDefender && arch.HoldGround {
		return field.EndTurn()
	}

	here := hex.Distance(u.Pos, e.Pos)
	best, found := u.Pos, false
	bestDist, bestArc, bestCost := here, field.ArcFront, 0
	for _, c := range v.Reach.Destinations() {
		d := hex.Distance(c, e.Pos)
		if d >= here {
			continue
		}
		cost, _ := v.Reach.Cost(c)
		arc := field.ArcFront
		if shrewd && d == 1 {
			arc = field.ArcOf(e.Pos, e.Facing, c)
		}
		if !found || better(d, arc, cost, bestDist, bestArc, bestCost) {
			best, found = c, true
			bestDist, bestArc, bestCost = d, arc, cost
		}
	}
	if !found {
		return field.EndTurn()
	}
	return field.Move(best)
}

// better orders candidate cells: closer first, then the weaker enemy arc,
// then the cheaper move. Destinations arrive in coordinate order, so ties
// keep the first.
func better(d int, arc field.Arc, cost, bd int, barc field.Arc, bcost int) bool {
	if d != bd {
		return d < bd
	}
	if arc != barc {
		return arc > barc
	}
	return cost < bcost
}
