package force_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/castlesiege/internal/game/force"
	"github.com/cory-johannsen/castlesiege/internal/game/officer"
)

func TestForce_Clamp_SubstitutesPlaceholder(t *testing.T) {
	f := &force.Force{Soldiers: -5, Supply: -1, Morale: 140, Training: -3}
	f.Clamp()
	assert.Equal(t, 0, f.Soldiers)
	assert.Equal(t, 0, f.Supply)
	assert.Equal(t, 100.0, f.Morale)
	assert.Equal(t, 0.0, f.Training)
	require.Len(t, f.Officers, 1)
	assert.True(t, f.Officers[0].IsPlaceholder())
}

func TestForce_Lose_NeverNegative(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		soldiers := rapid.IntRange(0, 10000).Draw(rt, "soldiers")
		cav := rapid.IntRange(0, soldiers).Draw(rt, "cavalry")
		loss := rapid.IntRange(-100, 20000).Draw(rt, "loss")
		f := &force.Force{Soldiers: soldiers, Equipment: force.Equipment{Cavalry: cav}}
		lost := f.Lose(loss)
		assert.GreaterOrEqual(rt, f.Soldiers, 0)
		assert.GreaterOrEqual(rt, lost, 0)
		assert.Equal(rt, soldiers-lost, f.Soldiers)
		assert.LessOrEqual(rt, f.Equipment.Cavalry, f.Soldiers)
	})
}

func TestForce_Commander_HighestLeadershipFirstOnTie(t *testing.T) {
	a := officer.New("a", "A", officer.Stats{Leadership: 80}, officer.IdeologyNone, nil)
	b := officer.New("b", "B", officer.Stats{Leadership: 90}, officer.IdeologyNone, nil)
	c := officer.New("c", "C", officer.Stats{Leadership: 90}, officer.IdeologyNone, nil)
	f := &force.Force{Officers: []*officer.Officer{a, b, c}}
	assert.Equal(t, "b", f.Commander().ID)
}

func TestForce_Clone_DoesNotAliasOfficers(t *testing.T) {
	a := officer.New("a", "A", officer.Stats{Leadership: 80}, officer.IdeologyNone, nil)
	f := &force.Force{Soldiers: 10, Officers: []*officer.Officer{a}}
	cp := f.Clone()
	cp.Officers[0].Name = "changed"
	cp.Soldiers = 1
	assert.Equal(t, "A", f.Officers[0].Name)
	assert.Equal(t, 10, f.Soldiers)
}

func TestGarrison_WallBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		maxWall := rapid.IntRange(0, 2000).Draw(rt, "max")
		g := &force.Garrison{Wall: rapid.IntRange(-100, 3000).Draw(rt, "wall"), MaxWall: maxWall}
		g.Clamp()
		g.DamageWall(rapid.IntRange(-50, 3000).Draw(rt, "dmg"))
		g.RestoreWall(rapid.IntRange(-50, 3000).Draw(rt, "repair"))
		assert.GreaterOrEqual(rt, g.Wall, 0)
		assert.LessOrEqual(rt, g.Wall, g.MaxWall)
	})
}

func TestGarrison_BestRetreat(t *testing.T) {
	g := &force.Garrison{}
	_, ok := g.BestRetreat()
	assert.False(t, ok)

	g.Retreats = []force.RetreatOption{{StrongholdID: "x", Score: 10}, {StrongholdID: "y", Score: 30}}
	best, ok := g.BestRetreat()
	require.True(t, ok)
	assert.Equal(t, "y", best.StrongholdID)
	_, ok = g.RetreatTo("z")
	assert.False(t, ok)
}

func TestPrisoner_Dispose(t *testing.T) {
	p := &force.Prisoner{Officer: officer.Placeholder(), CapturedBy: force.SideAttacker}
	require.Error(t, p.Dispose(force.DispositionPending))
	require.NoError(t, p.Dispose(force.DispositionHire))
	err := p.Dispose(force.DispositionExecute)
	assert.True(t, errors.Is(err, force.ErrAlreadyDisposed))
	assert.Equal(t, force.DispositionHire, p.Disposition)
}

func TestSide_Opponent(t *testing.T) {
	assert.Equal(t, force.SideDefender, force.SideAttacker.Opponent())
	assert.Equal(t, force.SideAttacker, force.SideDefender.Opponent())
	assert.Equal(t, "attacker", force.SideAttacker.String())
}
