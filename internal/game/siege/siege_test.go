package siege_test

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/castlesiege/internal/game/dice"
	"github.com/cory-johannsen/castlesiege/internal/game/field"
	"github.com/cory-johannsen/castlesiege/internal/game/force"
	"github.com/cory-johannsen/castlesiege/internal/game/officer"
	"github.com/cory-johannsen/castlesiege/internal/game/siege"
)

type fixedSrc struct{ val int }

func (f fixedSrc) Intn(n int) int {
	if f.val >= n {
		return n - 1
	}
	return f.val
}

func even(id string, role officer.Role) *officer.Officer {
	return officer.New(id, id, officer.Stats{Leadership: 60, Strength: 60, Intelligence: 60, Politics: 60, Charm: 60}, officer.IdeologyNone, role)
}

func newAttacker(soldiers, supply int) *force.Force {
	return &force.Force{
		Side:     force.SideAttacker,
		SourceID: "home",
		Soldiers: soldiers,
		Supply:   supply,
		Gold:     100,
		Morale:   50,
		Training: 50,
		Officers: []*officer.Officer{even("general", officer.Lord{})},
	}
}

func newGarrison(soldiers, wall int, retreats ...force.RetreatOption) *force.Garrison {
	return &force.Garrison{
		Force: force.Force{
			Side:     force.SideDefender,
			Soldiers: soldiers,
			Supply:   600,
			Gold:     400,
			Morale:   50,
			Training: 50,
			Officers: []*officer.Officer{even("castellan", officer.Castellan{}), even("aide", nil)},
		},
		StrongholdID: "keep",
		Name:         "Keep",
		Wall:         wall,
		MaxWall:      wall,
		Loyalty:      60,
		Retreats:     retreats,
	}
}

func newEngine(src dice.Source) *siege.Engine {
	return siege.NewEngine(siege.DefaultParams(), src, nil)
}

func submit(t *testing.T, e *siege.Engine, h siege.Handle, side force.Side, a siege.ActionType) siege.RoundResult {
	t.Helper()
	res, err := e.SubmitAction(h, side, siege.Action{Type: a})
	require.NoError(t, err)
	return res
}

func TestDefaultParams_Validate(t *testing.T) {
	require.NoError(t, siege.DefaultParams().Validate())
	p := siege.DefaultParams()
	p.RoundCap = 0
	p.Combat.EscortShare = -1
	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "round_cap")
	assert.Contains(t, err.Error(), "combat: escort_share")
}

func TestBeginSiege_AttackerMovesFirst(t *testing.T) {
	e := newEngine(fixedSrc{0})
	h, err := e.BeginSiege(newAttacker(1000, 1000), newGarrison(500, 300))
	require.NoError(t, err)
	v, err := e.View(h)
	require.NoError(t, err)
	assert.Equal(t, siege.StateRoundExchange, v.State)
	assert.Equal(t, force.SideAttacker, v.Turn)
	assert.Equal(t, 1, v.Round)

	resolved, err := e.IsResolved(h)
	require.NoError(t, err)
	assert.False(t, resolved)
	_, err = e.Outcome(h)
	assert.ErrorIs(t, err, siege.ErrNotResolved)
}

func TestBeginSiege_RequiresParticipants(t *testing.T) {
	_, err := newEngine(fixedSrc{0}).BeginSiege(nil, newGarrison(1, 1))
	assert.ErrorIs(t, err, siege.ErrInvalidParticipants)
}

func TestSubmitAction_ValidationLeavesStateUntouched(t *testing.T) {
	e := newEngine(fixedSrc{0})
	h, err := e.BeginSiege(newAttacker(1000, 1000), newGarrison(500, 300))
	require.NoError(t, err)
	before, _ := e.View(h)

	_, err = e.SubmitAction(h, force.SideDefender, siege.Action{Type: siege.ActionHold})
	assert.ErrorIs(t, err, siege.ErrNotYourTurn)
	_, err = e.SubmitAction(h, force.SideAttacker, siege.Action{Type: siege.ActionHold})
	assert.ErrorIs(t, err, siege.ErrActionNotAllowed)
	_, err = e.SubmitAction(h, force.SideAttacker, siege.Action{})
	assert.ErrorIs(t, err, siege.ErrActionNotAllowed)
	_, err = e.SubmitAction(siege.Handle(uuid.New()), force.SideAttacker, siege.Action{Type: siege.ActionSkip})
	assert.ErrorIs(t, err, siege.ErrUnknownSession)

	after, _ := e.View(h)
	assert.Equal(t, before, after)
}

func TestSubmitAction_InvalidRetreatDestinationRejected(t *testing.T) {
	e := newEngine(fixedSrc{0})
	h, err := e.BeginSiege(newAttacker(1000, 1000), newGarrison(500, 300, force.RetreatOption{StrongholdID: "fort"}))
	require.NoError(t, err)
	submit(t, e, h, force.SideAttacker, siege.ActionSkip)
	_, err = e.SubmitAction(h, force.SideDefender, siege.Action{Type: siege.ActionRetreat, Destination: "nowhere"})
	assert.ErrorIs(t, err, siege.ErrInvalidDestination)
	resolved, _ := e.IsResolved(h)
	assert.False(t, resolved)
}

func TestRoundCounter_OnePerExchangeAndTimeout(t *testing.T) {
	p := siege.DefaultParams()
	p.RoundCap = 3
	e := siege.NewEngine(p, fixedSrc{0}, nil)
	h, err := e.BeginSiege(newAttacker(1000, 1000), newGarrison(500, 300))
	require.NoError(t, err)

	for round := 1; round <= 3; round++ {
		v, _ := e.View(h)
		require.Equal(t, round, v.Round)
		res := submit(t, e, h, force.SideAttacker, siege.ActionSkip)
		assert.Equal(t, round, res.Round)
		v, _ = e.View(h)
		assert.Equal(t, round, v.Round, "round unchanged mid-exchange")
		submit(t, e, h, force.SideDefender, siege.ActionSkip)
	}

	out, err := e.Outcome(h)
	require.NoError(t, err)
	assert.Equal(t, siege.DrawTimeout, out.Kind)
	assert.Equal(t, 3, out.Rounds)
	assert.Equal(t, 970, out.Attacker.Supply)
	require.Len(t, out.Reinforcements, 1)
	assert.Equal(t, "home", out.Reinforcements[0].StrongholdID)
	assert.Equal(t, 1000, out.Reinforcements[0].Soldiers)

	_, err = e.SubmitAction(h, force.SideAttacker, siege.Action{Type: siege.ActionSkip})
	assert.ErrorIs(t, err, siege.ErrResolved)
}

// chargeAfter runs skip/defenderAction then an attacker charge, with equal
// soldier counts on both sides.
func chargeAfter(t *testing.T, defenderAction siege.ActionType) (siege.RoundResult, *siege.Engine, siege.Handle) {
	t.Helper()
	e := newEngine(fixedSrc{0})
	h, err := e.BeginSiege(newAttacker(1000, 1000), newGarrison(1000, 500))
	require.NoError(t, err)
	submit(t, e, h, force.SideAttacker, siege.ActionSkip)
	res := submit(t, e, h, force.SideDefender, defenderAction)
	if defenderAction == siege.ActionHold {
		require.True(t, res.Fortified)
	}
	return submit(t, e, h, force.SideAttacker, siege.ActionCharge), e, h
}

func TestHold_HalvesNextChargeExactlyOnce(t *testing.T) {
	held, e, h := chargeAfter(t, siege.ActionHold)
	open, _, _ := chargeAfter(t, siege.ActionSkip)

	require.NotNil(t, held.Unmitigated)
	require.NotNil(t, open.Unmitigated)
	assert.Equal(t, *open.Unmitigated, *held.Unmitigated)

	half := held.Unmitigated.Halve()
	assert.Equal(t, half.Soldiers, held.Applied.Soldiers)
	assert.Equal(t, half.Wall, held.Applied.Wall)
	assert.Equal(t, open.Unmitigated.Soldiers, open.Applied.Soldiers)
	assert.Equal(t, open.Unmitigated.Wall, open.Applied.Wall)
	assert.False(t, held.Fortified, "the flag is consumed by the charge")

	submit(t, e, h, force.SideDefender, siege.ActionSkip)
	next := submit(t, e, h, force.SideAttacker, siege.ActionCharge)
	require.NotNil(t, next.Unmitigated)
	assert.Equal(t, next.Unmitigated.Soldiers, next.Applied.Soldiers)
	assert.Equal(t, next.Unmitigated.Wall, next.Applied.Wall)
}

func TestHold_ConsumedByNonDamagingAction(t *testing.T) {
	e := newEngine(fixedSrc{0})
	h, err := e.BeginSiege(newAttacker(1000, 1000), newGarrison(1000, 500))
	require.NoError(t, err)
	submit(t, e, h, force.SideAttacker, siege.ActionSkip)
	submit(t, e, h, force.SideDefender, siege.ActionHold)
	res := submit(t, e, h, force.SideAttacker, siege.ActionSkip)
	assert.False(t, res.Fortified)
}

func sabotageAfter(t *testing.T, defenderAction siege.ActionType) siege.RoundResult {
	t.Helper()
	e := newEngine(fixedSrc{0})
	h, err := e.BeginSiege(newAttacker(1000, 1000), newGarrison(1000, 500))
	require.NoError(t, err)
	submit(t, e, h, force.SideAttacker, siege.ActionSkip)
	submit(t, e, h, force.SideDefender, defenderAction)
	return submit(t, e, h, force.SideAttacker, siege.ActionSabotage)
}

func TestHold_HalvesSabotage(t *testing.T) {
	held := sabotageAfter(t, siege.ActionHold)
	open := sabotageAfter(t, siege.ActionSkip)

	require.NotNil(t, held.Covert)
	require.NotNil(t, open.Covert)
	require.True(t, held.Covert.Success)
	require.Greater(t, open.Covert.Soldiers, 1)
	assert.Equal(t, open.Covert.Soldiers, held.Covert.Soldiers)
	assert.Equal(t, open.Covert.Soldiers, open.Applied.Soldiers)
	assert.Equal(t, held.Covert.Soldiers/2, held.Applied.Soldiers)
	assert.False(t, held.Fortified)
}

func TestOutcome_CarriesEquipment(t *testing.T) {
	equipped := func() (*force.Force, *force.Garrison) {
		att := newAttacker(1000, 1000)
		att.Equipment = force.Equipment{Cavalry: 400, Ranged: 200}
		g := newGarrison(800, 500, force.RetreatOption{StrongholdID: "fort", Name: "Fort"})
		g.Equipment = force.Equipment{Cavalry: 100, Ranged: 300}
		return att, g
	}

	t.Run("garrison withdraws with its specialists", func(t *testing.T) {
		e := newEngine(fixedSrc{0})
		att, g := equipped()
		h, err := e.BeginSiege(att, g)
		require.NoError(t, err)
		submit(t, e, h, force.SideAttacker, siege.ActionSkip)
		submit(t, e, h, force.SideDefender, siege.ActionRetreat)

		out, err := e.Outcome(h)
		require.NoError(t, err)
		require.Equal(t, siege.DefenderRetreat, out.Kind)
		assert.Equal(t, att.Equipment, out.Besieged.Equipment)
		require.Len(t, out.Reinforcements, 1)
		assert.Equal(t, g.Equipment, out.Reinforcements[0].Equipment)
	})

	t.Run("besiegers march home with theirs", func(t *testing.T) {
		e := newEngine(fixedSrc{0})
		att, g := equipped()
		h, err := e.BeginSiege(att, g)
		require.NoError(t, err)
		res := submit(t, e, h, force.SideAttacker, siege.ActionRetreat)
		require.NotNil(t, res.Outcome)
		assert.Equal(t, siege.AttackerDefeat, res.Outcome.Kind)
		assert.Equal(t, g.Equipment, res.Outcome.Besieged.Equipment)
		require.Len(t, res.Outcome.Reinforcements, 1)
		assert.Equal(t, att.Equipment, res.Outcome.Reinforcements[0].Equipment)
	})
}

func TestDefenderRetreat_NoDestinationIsFullCapture(t *testing.T) {
	e := newEngine(dice.NewSeededSource(3))
	h, err := e.BeginSiege(newAttacker(1000, 1000), newGarrison(800, 500))
	require.NoError(t, err)
	submit(t, e, h, force.SideAttacker, siege.ActionSkip)
	res := submit(t, e, h, force.SideDefender, siege.ActionRetreat)
	require.NotNil(t, res.Outcome)

	out, err := e.Outcome(h)
	require.NoError(t, err)
	assert.Equal(t, siege.AttackerVictory, out.Kind)
	assert.Len(t, out.Prisoners, 2)
	for _, p := range out.Prisoners {
		assert.Equal(t, force.DispositionPending, p.Disposition)
		assert.Equal(t, force.SideAttacker, p.CapturedBy)
	}
	assert.Empty(t, out.Reinforcements)
	require.NotNil(t, out.Transfer)
	assert.Equal(t, "keep", out.Transfer.StrongholdID)
}

func TestDefenderRetreat_OneDestination(t *testing.T) {
	e := newEngine(dice.NewSeededSource(11))
	g := newGarrison(1000, 500, force.RetreatOption{StrongholdID: "fort", Name: "Fort"})
	h, err := e.BeginSiege(newAttacker(1000, 1000), g)
	require.NoError(t, err)
	submit(t, e, h, force.SideAttacker, siege.ActionSkip)
	submit(t, e, h, force.SideDefender, siege.ActionRetreat)

	out, err := e.Outcome(h)
	require.NoError(t, err)
	assert.Equal(t, siege.DefenderRetreat, out.Kind)
	assert.InDelta(t, 0.5, out.CarryLoss, 1e-9)
	require.Len(t, out.Reinforcements, 1)
	r := out.Reinforcements[0]
	assert.Equal(t, "fort", r.StrongholdID)
	assert.Equal(t, 1000, r.Soldiers)
	assert.Equal(t, 200, r.Gold)
	assert.Equal(t, 300, r.Rice)
	assert.Equal(t, 2, len(r.Officers)+len(out.Prisoners), "every officer resolves to escaped or captured")
	require.NotNil(t, out.Transfer)
	assert.Equal(t, "home", out.Transfer.FromSourceID)
	assert.Equal(t, 1000, out.Besieged.Soldiers, "the attackers occupy the stronghold")
}

func TestDefenderRetreat_LordIsHarderToCapture(t *testing.T) {
	const trials = 2000
	lordTaken, retainerTaken := 0, 0
	e := newEngine(dice.NewSeededSource(5))
	for i := 0; i < trials; i++ {
		g := newGarrison(500, 300, force.RetreatOption{StrongholdID: "fort"})
		g.Officers = []*officer.Officer{even("lord", officer.Lord{}), even("retainer", officer.Retainer{})}
		h, err := e.BeginSiege(newAttacker(1000, 1000), g)
		require.NoError(t, err)
		submit(t, e, h, force.SideAttacker, siege.ActionSkip)
		submit(t, e, h, force.SideDefender, siege.ActionRetreat)
		out, err := e.Outcome(h)
		require.NoError(t, err)
		for _, p := range out.Prisoners {
			if p.Officer.ID == "lord" {
				lordTaken++
			} else {
				retainerTaken++
			}
		}
		e.End(h)
	}
	assert.InDelta(t, 0.15, float64(lordTaken)/trials, 0.04)
	assert.InDelta(t, 0.30, float64(retainerTaken)/trials, 0.04)
}

func TestAttackerRetreat_IsDefeat(t *testing.T) {
	e := newEngine(fixedSrc{0})
	h, err := e.BeginSiege(newAttacker(1000, 1000), newGarrison(1000, 500))
	require.NoError(t, err)
	submit(t, e, h, force.SideAttacker, siege.ActionCharge)
	submit(t, e, h, force.SideDefender, siege.ActionSortie)
	v, _ := e.View(h)
	res := submit(t, e, h, force.SideAttacker, siege.ActionRetreat)
	require.NotNil(t, res.Outcome)
	assert.Equal(t, siege.AttackerDefeat, res.Outcome.Kind)
	require.Len(t, res.Outcome.Reinforcements, 1)
	lost := v.Casualties[force.SideAttacker]
	recovered := int(math.Round(float64(lost) * siege.DefaultParams().DefeatRecovery))
	assert.Equal(t, recovered, res.Outcome.Recovered)
	assert.Equal(t, v.Attacker.Soldiers+recovered, res.Outcome.Reinforcements[0].Soldiers)
	assert.Nil(t, res.Outcome.Transfer)
}

func TestRepair_RestoresWall(t *testing.T) {
	e := newEngine(fixedSrc{0})
	g := newGarrison(1000, 500)
	g.Wall = 300
	h, err := e.BeginSiege(newAttacker(1000, 1000), g)
	require.NoError(t, err)
	submit(t, e, h, force.SideAttacker, siege.ActionSkip)
	res := submit(t, e, h, force.SideDefender, siege.ActionRepair)
	assert.Equal(t, 50, res.Spent)
	// 50*0.3 + (60 + 0.2*60)*0.5 = 51, castellan x1.25 = 63.75
	assert.Equal(t, 64, res.Repaired)
	v, _ := e.View(h)
	assert.Equal(t, 364, v.Garrison.Wall)
	assert.Equal(t, 950, v.Garrison.Soldiers)
}

func TestWallBreach_IsVictory(t *testing.T) {
	e := newEngine(fixedSrc{0})
	g := newGarrison(1000, 500)
	g.Wall = 5
	h, err := e.BeginSiege(newAttacker(2000, 1000), g)
	require.NoError(t, err)
	res := submit(t, e, h, force.SideAttacker, siege.ActionSiege)
	require.NotNil(t, res.Outcome)
	assert.Equal(t, siege.AttackerVictory, res.Outcome.Kind)
	assert.Equal(t, 0, res.Outcome.Besieged.Wall)
	assert.Len(t, res.Outcome.Prisoners, 2, "no retreat option: every officer is taken")
	assert.Greater(t, res.Outcome.LootLoss, 0.0)
	assert.Less(t, res.Outcome.LootLoss, siege.DefaultParams().LootBase)
}

func TestEmptyOfficerList_UsesPlaceholder(t *testing.T) {
	e := newEngine(fixedSrc{0})
	a := newAttacker(1000, 1000)
	a.Officers = nil
	h, err := e.BeginSiege(a, newGarrison(500, 300))
	require.NoError(t, err)
	res := submit(t, e, h, force.SideAttacker, siege.ActionCharge)
	assert.Positive(t, res.Applied.Soldiers)
	v, _ := e.View(h)
	require.Len(t, v.Attacker.Officers, 1)
	assert.True(t, v.Attacker.Officers[0].IsPlaceholder())
}

func TestSubscribers_ReceiveOrderedEvents(t *testing.T) {
	p := siege.DefaultParams()
	p.RoundCap = 2
	e := siege.NewEngine(p, fixedSrc{0}, nil)
	var global []siege.Event
	e.Subscribe(func(ev siege.Event) { global = append(global, ev) })
	var local []siege.Event
	h, err := e.BeginSiege(newAttacker(1000, 1000), newGarrison(500, 300),
		siege.WithSubscriber(func(ev siege.Event) { local = append(local, ev) }))
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		submit(t, e, h, force.SideAttacker, siege.ActionSkip)
		submit(t, e, h, force.SideDefender, siege.ActionSkip)
	}
	require.Len(t, local, 5)
	assert.Equal(t, local, global)
	for _, ev := range local[:4] {
		rr, ok := ev.(siege.RoundResolved)
		require.True(t, ok)
		assert.Equal(t, h, rr.Handle)
	}
	ended, ok := local[4].(siege.SessionEnded)
	require.True(t, ok)
	assert.Equal(t, siege.DrawTimeout, ended.Outcome.Kind)

	ended.Outcome.Attacker.Soldiers = 0
	out, _ := e.Outcome(h)
	assert.Equal(t, 1000, out.Attacker.Soldiers, "event payloads are copies")
}

func TestWithFieldOutcome_FallThroughFoldsSnapshot(t *testing.T) {
	e := newEngine(fixedSrc{0})
	fo := field.Outcome{
		Status:     field.StatusFallThrough,
		Rounds:     8,
		Attacker:   field.Snapshot{Soldiers: 900, Supply: 950},
		Defender:   field.Snapshot{Soldiers: 400, Supply: 580},
		Casualties: [2]int{100, 100},
	}
	h, err := e.BeginSiege(newAttacker(1000, 1000), newGarrison(500, 300), siege.WithFieldOutcome(fo))
	require.NoError(t, err)
	v, _ := e.View(h)
	assert.Equal(t, siege.StateRoundExchange, v.State)
	assert.Equal(t, 900, v.Attacker.Soldiers)
	assert.Equal(t, 950, v.Attacker.Supply)
	assert.Equal(t, 400, v.Garrison.Soldiers)
	assert.Equal(t, [2]int{100, 100}, v.Casualties)
}

func TestWithFieldOutcome_DecisiveResolvesImmediately(t *testing.T) {
	e := newEngine(fixedSrc{0})
	fo := field.Outcome{
		Status:   field.StatusDecided,
		Winner:   force.SideAttacker,
		Attacker: field.Snapshot{Soldiers: 900, Supply: 950},
		Defender: field.Snapshot{Soldiers: 0, Supply: 580},
	}
	h, err := e.BeginSiege(newAttacker(1000, 1000), newGarrison(500, 300), siege.WithFieldOutcome(fo))
	require.NoError(t, err)
	resolved, _ := e.IsResolved(h)
	require.True(t, resolved)
	out, err := e.Outcome(h)
	require.NoError(t, err)
	assert.Equal(t, siege.AttackerVictory, out.Kind)
	assert.Equal(t, 0, out.Rounds)
}

func TestScenario_SiegeAgainstHoldUsuallyWins(t *testing.T) {
	e := newEngine(dice.NewSeededSource(2024))
	const trials = 1000
	wins := 0
	for i := 0; i < trials; i++ {
		h, err := e.BeginSiege(newAttacker(2000, 2000), newGarrison(800, 500))
		require.NoError(t, err)
		for {
			res := submit(t, e, h, force.SideAttacker, siege.ActionSiege)
			if res.Outcome != nil {
				break
			}
			res = submit(t, e, h, force.SideDefender, siege.ActionHold)
			if res.Outcome != nil {
				break
			}
		}
		out, err := e.Outcome(h)
		require.NoError(t, err)
		if out.Kind == siege.AttackerVictory {
			wins++
		}
		assert.LessOrEqual(t, out.Rounds, siege.DefaultParams().RoundCap)
		e.End(h)
	}
	assert.Greater(t, float64(wins)/trials, 0.95)
}

func TestSession_InvariantsUnderRandomPlay(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		p := siege.DefaultParams()
		p.RoundCap = rapid.IntRange(1, 12).Draw(rt, "cap")
		e := siege.NewEngine(p, dice.NewSeededSource(rapid.Uint64().Draw(rt, "seed")), nil)
		a := newAttacker(rapid.IntRange(0, 3000).Draw(rt, "att"), rapid.IntRange(0, 500).Draw(rt, "supply"))
		var retreats []force.RetreatOption
		if rapid.Bool().Draw(rt, "canRetreat") {
			retreats = append(retreats, force.RetreatOption{StrongholdID: "fort"})
		}
		g := newGarrison(rapid.IntRange(0, 3000).Draw(rt, "def"), rapid.IntRange(0, 800).Draw(rt, "wall"), retreats...)
		h, err := e.BeginSiege(a, g)
		if err != nil {
			rt.Fatalf("begin: %v", err)
		}

		for steps := 0; ; steps++ {
			if steps > 2*p.RoundCap+2 {
				rt.Fatalf("session unresolved after %d actions", steps)
			}
			v, _ := e.View(h)
			if v.State == siege.StateResolved {
				break
			}
			if v.Round > p.RoundCap {
				rt.Fatalf("round %d beyond cap %d", v.Round, p.RoundCap)
			}
			actions := siege.ActionsFor(v.Turn)
			act := actions[rapid.IntRange(0, len(actions)-1).Draw(rt, "action")]
			res, err := e.SubmitAction(h, v.Turn, siege.Action{Type: act})
			if err != nil {
				rt.Fatalf("submit %s: %v", act, err)
			}
			after, _ := e.View(h)
			if after.Attacker.Soldiers < 0 || after.Garrison.Soldiers < 0 || after.Attacker.Supply < 0 {
				rt.Fatalf("negative count after %s", act)
			}
			if after.Garrison.Wall < 0 || after.Garrison.Wall > after.Garrison.MaxWall {
				rt.Fatalf("wall %d outside [0, %d]", after.Garrison.Wall, after.Garrison.MaxWall)
			}
			if res.Outcome == nil && after.Round != v.Round && !(v.Turn == force.SideDefender && after.Round == v.Round+1) {
				rt.Fatalf("round moved from %d to %d on %s turn", v.Round, after.Round, v.Turn)
			}
		}
		out, err := e.Outcome(h)
		if err != nil {
			rt.Fatalf("outcome: %v", err)
		}
		if out.Rounds > p.RoundCap {
			rt.Fatalf("resolved at round %d beyond cap %d", out.Rounds, p.RoundCap)
		}
	})
}
