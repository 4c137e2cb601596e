package field_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/castlesiege/internal/game/combatmath"
	"github.com/cory-johannsen/castlesiege/internal/game/field"
	"github.com/cory-johannsen/castlesiege/internal/game/force"
	"github.com/cory-johannsen/castlesiege/internal/game/hex"
)

func newGarrison(soldiers int) *force.Garrison {
	return &force.Garrison{
		Force:        *newForce(force.SideDefender, soldiers, 500),
		StrongholdID: "keep",
		Wall:         300,
		MaxWall:      500,
	}
}

func TestEngine_BeginSubmitOutcome(t *testing.T) {
	e := field.NewEngine(field.DefaultParams(), combatmath.DefaultParams(), fixedSrc{0}, nil)
	att := newForce(force.SideAttacker, 1000, 500)
	def := newGarrison(5)

	h, err := e.BeginField(att, def, field.WithGrid(hex.NewGrid(2, hex.Open)))
	require.NoError(t, err)

	_, done, err := e.FieldOutcome(h)
	require.NoError(t, err)
	assert.False(t, done)

	v, err := e.View(h)
	require.NoError(t, err)
	assert.True(t, v.Reach.Contains(hex.Coord{}))

	_, err = e.SubmitUnitAction(h, force.SideAttacker, field.Move(hex.Coord{}))
	require.NoError(t, err)
	res, err := e.SubmitUnitAction(h, force.SideAttacker, field.Attack())
	require.NoError(t, err)
	require.NotNil(t, res.Outcome)

	out, done, err := e.FieldOutcome(h)
	require.NoError(t, err)
	require.True(t, done)
	assert.Equal(t, force.SideAttacker, out.Winner)

	assert.Equal(t, 1000, att.Soldiers, "caller forces are never mutated")
	assert.Equal(t, 5, def.Soldiers)

	e.End(h)
	_, _, err = e.FieldOutcome(h)
	assert.ErrorIs(t, err, field.ErrUnknownField)
}

func TestEngine_GeneratedTerrainKeepsDeploymentOpen(t *testing.T) {
	p := field.DefaultParams()
	p.Terrain.Roughness = 0.6
	e := field.NewEngine(p, combatmath.DefaultParams(), fixedSrc{0}, nil)
	h, err := e.BeginField(newForce(force.SideAttacker, 1000, 500), newGarrison(800))
	require.NoError(t, err)
	v, err := e.View(h)
	require.NoError(t, err)
	for _, u := range v.Units {
		assert.True(t, v.Grid.Passable(u.Pos))
		for _, n := range u.Pos.Neighbors() {
			if v.Grid.Contains(n) {
				assert.True(t, v.Grid.Passable(n))
			}
		}
	}
}

func TestEngine_UnknownHandle(t *testing.T) {
	e := field.NewEngine(field.DefaultParams(), combatmath.DefaultParams(), fixedSrc{0}, nil)
	_, err := e.SubmitUnitAction(field.Handle(uuid.New()), force.SideAttacker, field.EndTurn())
	assert.ErrorIs(t, err, field.ErrUnknownField)
}

func TestEngine_BeginRequiresForces(t *testing.T) {
	e := field.NewEngine(field.DefaultParams(), combatmath.DefaultParams(), fixedSrc{0}, nil)
	_, err := e.BeginField(nil, newGarrison(10))
	assert.Error(t, err)
}
