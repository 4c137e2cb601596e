package siege

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/castlesiege/internal/game/combatmath"
	"github.com/cory-johannsen/castlesiege/internal/game/force"
	"github.com/cory-johannsen/castlesiege/internal/game/officer"
)

// captureChance is the probability that o is taken while the garrison flees.
func (s *Session) captureChance(o *officer.Officer) float64 {
	switch o.Role.(type) {
	case officer.Lord:
		return s.params.CaptureChance * s.params.LordCaptureFactor
	case officer.Castellan, officer.Strategist, officer.Retainer:
		return s.params.CaptureChance
	default:
		panic(fmt.Sprintf("siege: unhandled role %T", o.Role))
	}
}

// rollCaptures splits the garrison's officers into prisoners and escapees.
// With captureAll every officer is taken. The placeholder commander is never
// a prisoner.
func (s *Session) rollCaptures(captureAll bool) (prisoners []*force.Prisoner, escaped []*officer.Officer) {
	for _, o := range s.garrison.Officers {
		if o.IsPlaceholder() {
			continue
		}
		if captureAll || s.roller.Chance("capture "+o.ID, s.captureChance(o)) {
			prisoners = append(prisoners, &force.Prisoner{Officer: o, CapturedBy: force.SideAttacker})
			s.record(fmt.Sprintf("%s is taken prisoner.", o.Name))
			continue
		}
		escaped = append(escaped, o)
		s.record(fmt.Sprintf("%s escapes.", o.Name))
	}
	return prisoners, escaped
}

// resolveVictory ends the session with the stronghold taken. Remaining
// garrison officers roll capture against escape to the best retreat option;
// with no option, or when captureAll is set, all are taken.
func (s *Session) resolveVictory(captureAll bool) {
	rate := s.params.Recovery
	if s.round <= s.params.ShortBattleRounds {
		rate = s.params.ShortBattleRecovery
	}
	recovered := int(math.Round(float64(s.casualties[force.SideAttacker]) * rate))
	s.attacker.Soldiers += recovered

	dest, hasRetreat := s.garrison.BestRetreat()
	prisoners, escaped := s.rollCaptures(captureAll || !hasRetreat)

	charm := combatmath.AggregateStats(s.params.Combat, s.attacker.Officers).Stats.Charm
	loot := combatmath.LootLoss(s.params.LootBase, charm)
	gold := int(math.Round(float64(s.garrison.Gold) * (1 - loot)))
	rice := int(math.Round(float64(s.garrison.Supply) * (1 - loot)))
	s.record(fmt.Sprintf("%s falls. %d soldiers return to the ranks; looting destroys %.0f%% of the stores.",
		s.garrison.Name, recovered, loot*100))

	o := &Outcome{
		Kind:      AttackerVictory,
		Recovered: recovered,
		Besieged: Holding{
			StrongholdID: s.garrison.StrongholdID,
			Soldiers:     s.attacker.Soldiers,
			Gold:         gold + s.attacker.Gold,
			Rice:         rice + s.attacker.Supply,
			Wall:         s.garrison.Wall,
			Equipment:    s.attacker.Equipment,
			Officers:     s.attacker.Officers,
		},
		Transfer:  &Transfer{StrongholdID: s.garrison.StrongholdID, FromSourceID: s.attacker.SourceID},
		Prisoners: prisoners,
		LootLoss:  loot,
	}
	if len(escaped) > 0 {
		o.Reinforcements = append(o.Reinforcements, Reinforcement{StrongholdID: dest.StrongholdID, Officers: escaped})
	}
	s.garrison.Soldiers = 0
	s.garrison.Equipment = force.Equipment{}
	s.garrison.Officers = nil
	s.finish(o)
}

// defenderRetreat withdraws the garrison to destination (or the best option).
// With no option the garrison cannot escape and the stronghold falls with
// every officer captured.
func (s *Session) defenderRetreat(destination string) {
	var dest force.RetreatOption
	var ok bool
	if destination != "" {
		dest, ok = s.garrison.RetreatTo(destination)
	} else {
		dest, ok = s.garrison.BestRetreat()
	}
	if !ok {
		s.record("The garrison tries to flee but has nowhere to go.")
		s.resolveVictory(true)
		return
	}

	loss := combatmath.CarryLoss(s.params.CarryLossBase, s.params.CarryLossK, s.attacker.Soldiers, s.garrison.Soldiers)
	gold := int(math.Round(float64(s.garrison.Gold) * (1 - loss)))
	rice := int(math.Round(float64(s.garrison.Supply) * (1 - loss)))
	s.record(fmt.Sprintf("The garrison withdraws to %s with %d soldiers, abandoning %.0f%% of its stores.",
		nameOr(dest.Name, dest.StrongholdID), s.garrison.Soldiers, loss*100))
	prisoners, escaped := s.rollCaptures(false)

	o := &Outcome{
		Kind: DefenderRetreat,
		Besieged: Holding{
			StrongholdID: s.garrison.StrongholdID,
			Soldiers:     s.attacker.Soldiers,
			Gold:         s.attacker.Gold,
			Rice:         s.attacker.Supply,
			Wall:         s.garrison.Wall,
			Equipment:    s.attacker.Equipment,
			Officers:     s.attacker.Officers,
		},
		Transfer: &Transfer{StrongholdID: s.garrison.StrongholdID, FromSourceID: s.attacker.SourceID},
		Reinforcements: []Reinforcement{{
			StrongholdID: dest.StrongholdID,
			Soldiers:     s.garrison.Soldiers,
			Gold:         gold,
			Rice:         rice,
			Equipment:    s.garrison.Equipment,
			Officers:     escaped,
		}},
		Prisoners: prisoners,
		CarryLoss: loss,
	}
	s.garrison.Soldiers = 0
	s.garrison.Gold = 0
	s.garrison.Supply = 0
	s.garrison.Equipment = force.Equipment{}
	s.garrison.Officers = nil
	s.finish(o)
}

// resolveReturn ends the session with the attacker marching home; rate of
// its casualties recover on the way.
func (s *Session) resolveReturn(kind OutcomeKind, rate float64) {
	recovered := int(math.Round(float64(s.casualties[force.SideAttacker]) * rate))
	s.record(fmt.Sprintf("%d besiegers return home, %d of them recovered wounded.", s.attacker.Soldiers+recovered, recovered))
	o := &Outcome{
		Kind:      kind,
		Recovered: recovered,
		Besieged: Holding{
			StrongholdID: s.garrison.StrongholdID,
			Soldiers:     s.garrison.Soldiers,
			Gold:         s.garrison.Gold,
			Rice:         s.garrison.Supply,
			Wall:         s.garrison.Wall,
			Equipment:    s.garrison.Equipment,
			Officers:     s.garrison.Officers,
		},
		Reinforcements: []Reinforcement{{
			StrongholdID: s.attacker.SourceID,
			Soldiers:     s.attacker.Soldiers + recovered,
			Gold:         s.attacker.Gold,
			Rice:         s.attacker.Supply,
			Equipment:    s.attacker.Equipment,
			Officers:     s.attacker.Officers,
		}},
	}
	s.finish(o)
}

// finish stamps the common outcome fields and moves to StateResolved.
func (s *Session) finish(o *Outcome) {
	o.Rounds = min(s.round, s.params.RoundCap)
	o.Casualties = s.casualties
	o.Attacker = s.attacker.Clone()
	o.Garrison = s.garrison.Clone()
	o.Log = append([]string(nil), s.log...)
	s.outcome = o
	s.state = StateResolved
	s.fortified = false

	s.logger.Info("siege resolved",
		zap.Stringer("outcome", o.Kind),
		zap.Int("rounds", o.Rounds),
		zap.Int("attacker_casualties", o.Casualties[force.SideAttacker]),
		zap.Int("defender_casualties", o.Casualties[force.SideDefender]),
		zap.Int("prisoners", len(o.Prisoners)),
	)
}

// Clone returns a deep copy of o so that receivers cannot reach session state.
func (o Outcome) Clone() Outcome {
	cp := o
	cp.Besieged.Officers = cloneOfficers(o.Besieged.Officers)
	cp.Reinforcements = make([]Reinforcement, len(o.Reinforcements))
	for i, r := range o.Reinforcements {
		r.Officers = cloneOfficers(r.Officers)
		cp.Reinforcements[i] = r
	}
	cp.Prisoners = make([]*force.Prisoner, len(o.Prisoners))
	for i, p := range o.Prisoners {
		pc := *p
		pc.Officer = cloneOfficers([]*officer.Officer{p.Officer})[0]
		cp.Prisoners[i] = &pc
	}
	if o.Transfer != nil {
		t := *o.Transfer
		cp.Transfer = &t
	}
	if o.Attacker != nil {
		cp.Attacker = o.Attacker.Clone()
	}
	if o.Garrison != nil {
		cp.Garrison = o.Garrison.Clone()
	}
	cp.Log = append([]string(nil), o.Log...)
	return cp
}

func cloneOfficers(in []*officer.Officer) []*officer.Officer {
	if in == nil {
		return nil
	}
	out := make([]*officer.Officer, len(in))
	for i, o := range in {
		oc := *o
		out[i] = &oc
	}
	return out
}

func nameOr(name, id string) string {
	if name != "" {
		return name
	}
	return id
}
