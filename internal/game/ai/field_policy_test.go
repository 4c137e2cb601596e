package ai_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/castlesiege/internal/game/ai"
	"github.com/cory-johannsen/castlesiege/internal/game/combatmath"
	"github.com/cory-johannsen/castlesiege/internal/game/dice"
	"github.com/cory-johannsen/castlesiege/internal/game/field"
	"github.com/cory-johannsen/castlesiege/internal/game/force"
	"github.com/cory-johannsen/castlesiege/internal/game/hex"
	"github.com/cory-johannsen/castlesiege/internal/game/officer"
)

// fieldView places the active attacker at from with ap points and the
// defender at enemy facing enemyFacing on an open radius-5 grid.
func fieldView(from hex.Coord, ap int, intel float64, enemy hex.Coord, enemyFacing hex.Facing) field.View {
	g := hex.NewGrid(5, hex.Open)
	p := field.DefaultParams()
	v := field.View{Grid: g, Active: force.SideAttacker, Round: 1, Params: p}
	v.Units[force.SideAttacker] = field.Unit{
		Side: force.SideAttacker, Pos: from, Facing: hex.East, Mobility: ap, AP: ap,
		Stats: officer.Stats{Leadership: 60, Strength: 60, Intelligence: intel},
	}
	v.Units[force.SideDefender] = field.Unit{
		Side: force.SideDefender, Pos: enemy, Facing: enemyFacing, Mobility: ap, AP: ap,
	}
	v.Reach = g.Reachable(hex.Query{From: from, Enemy: enemy, Budget: ap, ZOCPenalty: p.ZOCPenalty})
	return v
}

func TestFieldAction_ClosesDistance(t *testing.T) {
	pol := newPolicy(ai.DefaultParams(), fixedSrc{0}, nil)
	v := fieldView(hex.Coord{Q: -4}, 4, 50, hex.Coord{Q: 4}, hex.West)
	a := pol.FieldAction(force.SideAttacker, v, balanced())
	assert.Equal(t, field.Move(hex.Coord{}), a)
}

func TestFieldAction_AttacksWhenAdjacent(t *testing.T) {
	pol := newPolicy(ai.DefaultParams(), fixedSrc{0}, nil)
	v := fieldView(hex.Coord{Q: -1}, 4, 50, hex.Coord{}, hex.West)
	assert.Equal(t, field.Attack(), pol.FieldAction(force.SideAttacker, v, balanced()))
}

func TestFieldAction_ShrewdSeeksRear(t *testing.T) {
	pol := newPolicy(ai.DefaultParams(), fixedSrc{0}, nil)
	enemy := hex.Coord{}

	shrewd := pol.FieldAction(force.SideAttacker, fieldView(hex.Coord{Q: -3}, 8, 90, enemy, hex.West), balanced())
	require.Equal(t, field.ActionMove, shrewd.Type)
	assert.Equal(t, field.ArcRear, field.ArcOf(enemy, hex.West, shrewd.To))

	dull := pol.FieldAction(force.SideAttacker, fieldView(hex.Coord{Q: -3}, 8, 10, enemy, hex.West), balanced())
	require.Equal(t, field.ActionMove, dull.Type)
	assert.Equal(t, hex.Coord{Q: -1}, dull.To, "the cheapest adjacent cell")
}

func TestFieldAction_HoldGroundDefenderWaits(t *testing.T) {
	pol := newPolicy(ai.DefaultParams(), fixedSrc{0}, nil)
	v := fieldView(hex.Coord{Q: -4}, 4, 50, hex.Coord{Q: 4}, hex.West)
	v.Active = force.SideDefender
	v.Units[0], v.Units[1] = v.Units[1], v.Units[0]
	v.Units[0].Side, v.Units[1].Side = force.SideAttacker, force.SideDefender
	cautious := ai.DefaultArchetypes()[2]
	require.True(t, cautious.HoldGround)
	assert.Equal(t, field.EndTurn(), pol.FieldAction(force.SideDefender, v, cautious))
}

func TestFieldAction_DrivesBattleToOutcome(t *testing.T) {
	pol := newPolicy(ai.DefaultParams(), dice.NewSeededSource(4), nil)
	e := field.NewEngine(field.DefaultParams(), combatmath.DefaultParams(), dice.NewSeededSource(4), nil)
	lead := officer.New("l", "Lead", officer.Stats{Leadership: 60, Strength: 60, Intelligence: 80}, "", officer.Lord{})
	att := &force.Force{Soldiers: 1000, Supply: 500, Morale: 50, Training: 50, Officers: []*officer.Officer{lead}}
	def := &force.Garrison{Force: force.Force{Soldiers: 1000, Supply: 500, Morale: 50, Training: 50, Officers: []*officer.Officer{lead}}}
	h, err := e.BeginField(att, def, field.WithGrid(hex.NewGrid(3, hex.Open)))
	require.NoError(t, err)

	for i := 0; ; i++ {
		require.Less(t, i, 500, "battle did not end")
		v, err := e.View(h)
		require.NoError(t, err)
		before := hex.Distance(v.Units[0].Pos, v.Units[1].Pos)
		a := pol.FieldAction(v.Active, v, balanced())
		res, err := e.SubmitUnitAction(h, v.Active, a)
		require.NoError(t, err, "action %v", a)
		if a.Type == field.ActionMove {
			after, _ := e.View(h)
			assert.Less(t, hex.Distance(after.Units[0].Pos, after.Units[1].Pos), before)
		}
		if res.Outcome != nil {
			break
		}
	}
	_, done, err := e.FieldOutcome(h)
	require.NoError(t, err)
	assert.True(t, done)
}
