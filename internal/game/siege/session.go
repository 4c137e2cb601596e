package siege

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/castlesiege/internal/game/combatmath"
	"github.com/cory-johannsen/castlesiege/internal/game/dice"
	"github.com/cory-johannsen/castlesiege/internal/game/field"
	"github.com/cory-johannsen/castlesiege/internal/game/force"
	"github.com/cory-johannsen/castlesiege/internal/game/officer"
)

// Handle identifies a session within an Engine.
type Handle uuid.UUID

// String returns the canonical UUID text.
func (h Handle) String() string { return uuid.UUID(h).String() }

// Session is the live state of one siege. It exclusively owns its attacker
// and garrison snapshots. It is not safe for concurrent use; Engine
// serialises access.
//
// Invariant: exactly one side holds the turn while in StateRoundExchange;
// once StateResolved, outcome is non-nil and no further mutation happens.
type Session struct {
	handle  Handle
	params  Params
	roller  *dice.Roller
	logger  *zap.Logger
	publish Subscriber

	attacker *force.Force
	garrison *force.Garrison

	state      State
	turn       force.Side
	round      int
	fortified  bool
	casualties [2]int
	outcome    *Outcome
	log        []string
}

// NewSession creates a session in StateInitiated from copies of attacker
// and garrison. Numeric fields are clamped and empty officer lists replaced
// by a placeholder commander.
//
// Precondition: attacker, garrison and roller are non-nil.
func NewSession(p Params, attacker *force.Force, garrison *force.Garrison, roller *dice.Roller, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		params:   p,
		roller:   roller,
		logger:   logger,
		attacker: attacker.Clone(),
		garrison: garrison.Clone(),
		state:    StateInitiated,
		round:    1,
	}
	s.attacker.Side = force.SideAttacker
	s.garrison.Side = force.SideDefender
	s.attacker.Officers = officer.Sanitize(s.attacker.Officers)
	s.garrison.Officers = officer.Sanitize(s.garrison.Officers)
	s.clamp()
	return s
}

// ApplyFieldOutcome folds a finished field battle into the starting state.
// A decisive field result resolves the session at once.
//
// Precondition: s is in StateInitiated.
func (s *Session) ApplyFieldOutcome(o field.Outcome) error {
	if s.state != StateInitiated {
		return ErrAlreadyCommenced
	}
	s.attacker.Lose(s.attacker.Soldiers - o.Attacker.Soldiers)
	s.attacker.Supply = o.Attacker.Supply
	s.garrison.Lose(s.garrison.Soldiers - o.Defender.Soldiers)
	s.garrison.Supply = o.Defender.Supply
	s.casualties[force.SideAttacker] += o.Casualties[force.SideAttacker]
	s.casualties[force.SideDefender] += o.Casualties[force.SideDefender]
	s.clamp()
	s.record(fmt.Sprintf("The field battle ends after %d rounds (%s).", o.Rounds, o.Status))

	if o.Decisive() {
		s.round = 0
		if o.Winner == force.SideAttacker {
			s.record("The garrison's army is broken in the field.")
			s.resolveVictory(false)
		} else {
			s.record("The besiegers are routed before reaching the walls.")
			s.resolveReturn(AttackerDefeat, s.params.DefeatRecovery)
		}
		s.emit(SessionEnded{Handle: s.handle, Outcome: s.outcome.Clone()})
	}
	return nil
}

// Commence moves the session from StateInitiated to the attacker's first turn.
func (s *Session) Commence() error {
	switch s.state {
	case StateResolved:
		return ErrResolved
	case StateRoundExchange:
		return ErrAlreadyCommenced
	}
	s.state = StateRoundExchange
	s.turn = force.SideAttacker
	s.record(fmt.Sprintf("The siege of %s begins: %d attackers against %d defenders behind %d/%d walls.",
		s.garrison.Name, s.attacker.Soldiers, s.garrison.Soldiers, s.garrison.Wall, s.garrison.MaxWall))
	return nil
}

// State returns the session phase.
func (s *Session) State() State { return s.state }

// Turn returns the side whose turn it is.
func (s *Session) Turn() force.Side { return s.turn }

// Round returns the current round, starting at 1.
func (s *Session) Round() int { return s.round }

// Fortified reports whether the defender's hold is in effect.
func (s *Session) Fortified() bool { return s.fortified }

// Attacker returns a copy of the attacking force.
func (s *Session) Attacker() *force.Force { return s.attacker.Clone() }

// Garrison returns a copy of the garrison.
func (s *Session) Garrison() *force.Garrison { return s.garrison.Clone() }

// Casualties returns cumulative losses indexed by side.
func (s *Session) Casualties() [2]int { return s.casualties }

// Outcome returns the canonical outcome, or nil while unresolved.
func (s *Session) Outcome() *Outcome { return s.outcome }

// Log returns the narrative so far.
func (s *Session) Log() []string { return append([]string(nil), s.log...) }

// Submit validates and resolves one action for side.
//
// Postcondition: on error the session is unchanged. On success exactly one
// action has been applied, every count re-clamped, and the turn passed on or
// the session resolved.
func (s *Session) Submit(side force.Side, a Action) (RoundResult, error) {
	switch s.state {
	case StateInitiated:
		return RoundResult{}, ErrNotStarted
	case StateResolved:
		return RoundResult{}, ErrResolved
	}
	if side != s.turn {
		return RoundResult{}, fmt.Errorf("%s: %w", side, ErrNotYourTurn)
	}
	if !a.Type.AllowedFor(side) {
		return RoundResult{}, fmt.Errorf("%s %s: %w", side, a.Type, ErrActionNotAllowed)
	}
	if a.Type == ActionRetreat && side == force.SideDefender && a.Destination != "" {
		if _, ok := s.garrison.RetreatTo(a.Destination); !ok {
			return RoundResult{}, fmt.Errorf("%q: %w", a.Destination, ErrInvalidDestination)
		}
	}

	res := RoundResult{Round: s.round, Actor: side, Action: a.Type}
	mark := len(s.log)
	if side == force.SideAttacker {
		s.attackerTurn(a, &res)
	} else {
		s.defenderTurn(a, &res)
	}
	s.clamp()

	if s.state != StateResolved {
		s.checkElimination()
	}
	if s.state != StateResolved {
		s.advance()
	}
	res.Fortified = s.fortified
	res.Narrative = append([]string(nil), s.log[mark:]...)
	if s.outcome != nil {
		o := s.outcome.Clone()
		res.Outcome = &o
	}
	s.emit(RoundResolved{Handle: s.handle, Result: res})
	if s.outcome != nil {
		s.emit(SessionEnded{Handle: s.handle, Outcome: s.outcome.Clone()})
	}
	return res, nil
}

func (s *Session) attackerTurn(a Action, res *RoundResult) {
	// Any attacker action consumes the defender's hold.
	fortified := s.fortified
	s.fortified = false

	switch a.Type {
	case ActionCharge:
		s.strikeWalls(s.params.Combat.Charge, false, fortified, res)
	case ActionRanged:
		s.strikeWalls(s.params.Combat.Ranged, true, fortified, res)
	case ActionSiege:
		s.strikeWalls(s.params.Combat.Siege, false, fortified, res)
	case ActionArson:
		cr := combatmath.Arson(s.params.Combat, s.roller,
			combatmath.CovertIntelligence(s.attacker.Officers), combatmath.CovertIntelligence(s.garrison.Officers),
			true, s.garrison.Wall, s.garrison.Soldiers)
		res.Covert = &cr
		applied := Damage{Wall: cr.Wall}
		if fortified {
			applied.Wall /= 2
		}
		res.Applied.Wall = s.garrison.DamageWall(applied.Wall)
		if cr.Success {
			s.record(fmt.Sprintf("Fire-raisers burn %d of the wall.", res.Applied.Wall))
		} else {
			s.record("The arson attempt is discovered and fails.")
		}
	case ActionSabotage:
		cr := combatmath.Sabotage(s.params.Combat, s.roller,
			combatmath.CovertIntelligence(s.attacker.Officers), combatmath.CovertIntelligence(s.garrison.Officers),
			s.garrison.Loyalty, s.garrison.Soldiers)
		res.Covert = &cr
		deserters := cr.Soldiers
		if fortified {
			deserters /= 2
		}
		res.Applied.Soldiers = s.lose(s.garrison.Force.Lose, force.SideDefender, deserters)
		if cr.Success {
			s.record(fmt.Sprintf("Agents inside the walls stir unrest; %d defenders desert.", res.Applied.Soldiers))
		} else {
			s.record("The sabotage plot is uncovered.")
		}
	case ActionRetreat:
		s.record("The besiegers abandon the siege.")
		s.resolveReturn(AttackerDefeat, s.params.DefeatRecovery)
	case ActionSkip:
		s.record("The besiegers wait.")
	}
}

// strikeWalls resolves an attacker damage action against the garrison.
func (s *Session) strikeWalls(prof combatmath.ActionProfile, ranged, fortified bool, res *RoundResult) {
	dmg := combatmath.Damage(s.params.Combat, combatmath.DamageInput{
		Striker:       s.sideOf(s.attacker),
		Target:        s.sideOf(&s.garrison.Force),
		Profile:       prof,
		AgainstWalls:  true,
		Wall:          s.garrison.Wall,
		Fortification: s.garrison.Fortification,
		Ranged:        ranged,
	}, s.roller)
	res.Unmitigated = &dmg
	applied := dmg
	if fortified {
		applied = dmg.Halve()
	}
	res.Applied.Soldiers = s.lose(s.garrison.Force.Lose, force.SideDefender, applied.Soldiers)
	res.Applied.Wall = s.garrison.DamageWall(applied.Wall)
	res.Retaliation = s.lose(s.attacker.Lose, force.SideAttacker,
		combatmath.Retaliation(s.params.Combat, res.Applied.Soldiers, dmg.CounterRisk))

	msg := fmt.Sprintf("The %s kills %d defenders and breaks %d of the wall; %d attackers fall.",
		res.Action, res.Applied.Soldiers, res.Applied.Wall, res.Retaliation)
	if fortified {
		msg += " The prepared defence halves the blow."
	}
	s.record(msg)
}

func (s *Session) defenderTurn(a Action, res *RoundResult) {
	switch a.Type {
	case ActionSortie, ActionRanged:
		prof, ranged := s.params.Combat.Sortie, false
		if a.Type == ActionRanged {
			prof, ranged = s.params.Combat.Ranged, true
		}
		dmg := combatmath.Damage(s.params.Combat, combatmath.DamageInput{
			Striker: s.sideOf(&s.garrison.Force),
			Target:  s.sideOf(s.attacker),
			Profile: prof,
			Ranged:  ranged,
		}, s.roller)
		res.Unmitigated = &dmg
		res.Applied.Soldiers = s.lose(s.attacker.Lose, force.SideAttacker, dmg.Soldiers)
		res.Retaliation = s.lose(s.garrison.Force.Lose, force.SideDefender,
			combatmath.Retaliation(s.params.Combat, res.Applied.Soldiers, dmg.CounterRisk))
		s.record(fmt.Sprintf("The garrison's %s kills %d besiegers for %d of its own.", a.Type, res.Applied.Soldiers, res.Retaliation))
	case ActionHold:
		s.fortified = true
		s.record("The garrison braces behind the walls.")
	case ActionRepair:
		best, assisting, castellan := combatmath.BestPolitics(s.garrison.Officers)
		spent, restored := combatmath.Repair(s.params.Combat, s.garrison.Soldiers, best, assisting, castellan)
		res.Spent = s.lose(s.garrison.Force.Lose, force.SideDefender, spent)
		res.Repaired = s.garrison.RestoreWall(restored)
		s.record(fmt.Sprintf("%d soldiers labour on the walls, restoring %d.", res.Spent, res.Repaired))
	case ActionArson:
		cr := combatmath.Arson(s.params.Combat, s.roller,
			combatmath.CovertIntelligence(s.garrison.Officers), combatmath.CovertIntelligence(s.attacker.Officers),
			false, 0, s.attacker.Soldiers)
		res.Covert = &cr
		res.Applied.Soldiers = s.lose(s.attacker.Lose, force.SideAttacker, cr.Soldiers)
		if cr.Success {
			s.record(fmt.Sprintf("Raiders fire the besiegers' camp; %d perish.", res.Applied.Soldiers))
		} else {
			s.record("The raid on the besiegers' camp is driven off.")
		}
	case ActionSabotage:
		cr := combatmath.Sabotage(s.params.Combat, s.roller,
			combatmath.CovertIntelligence(s.garrison.Officers), combatmath.CovertIntelligence(s.attacker.Officers),
			s.attacker.Morale, s.attacker.Soldiers)
		res.Covert = &cr
		res.Applied.Soldiers = s.lose(s.attacker.Lose, force.SideAttacker, cr.Soldiers)
		if cr.Success {
			s.record(fmt.Sprintf("Rumours spread through the siege lines; %d besiegers desert.", res.Applied.Soldiers))
		} else {
			s.record("The garrison's agents are caught.")
		}
	case ActionRetreat:
		s.defenderRetreat(a.Destination)
	case ActionSkip:
		s.record("The garrison waits.")
	}
}

// lose applies n losses through loseFn and books them as casualties of side.
func (s *Session) lose(loseFn func(int) int, side force.Side, n int) int {
	lost := loseFn(n)
	s.casualties[side] += lost
	return lost
}

func (s *Session) sideOf(f *force.Force) combatmath.Side {
	return combatmath.Side{
		Stats:       combatmath.AggregateStats(s.params.Combat, f.Officers).Stats,
		Soldiers:    f.Soldiers,
		Morale:      f.Morale,
		Training:    f.Training,
		RangedShare: f.RangedShare(),
	}
}

// checkElimination resolves the session when either side can no longer fight.
// An attacker with no soldiers cannot take the stronghold, so its defeat
// takes precedence.
func (s *Session) checkElimination() {
	switch {
	case s.attacker.Soldiers == 0 || s.attacker.Supply == 0:
		s.record("The besieging army can no longer fight.")
		s.resolveReturn(AttackerDefeat, s.params.DefeatRecovery)
	case s.garrison.Soldiers == 0:
		s.record("The last defenders fall.")
		s.resolveVictory(false)
	case s.garrison.MaxWall > 0 && s.garrison.Wall == 0:
		s.record("The walls are breached.")
		s.resolveVictory(false)
	}
}

// advance passes the turn, closing the round after the defender acts.
func (s *Session) advance() {
	if s.turn == force.SideAttacker {
		s.turn = force.SideDefender
		return
	}
	if s.attacker.Soldiers > 0 {
		need := max(int(math.Round(float64(s.attacker.Soldiers)*s.params.SupplyPerSoldier)), 1)
		s.attacker.Consume(need)
	}
	if s.attacker.Supply == 0 {
		s.record("The besiegers' stores run out.")
		s.resolveReturn(AttackerDefeat, s.params.DefeatRecovery)
		return
	}
	s.round++
	if s.round > s.params.RoundCap {
		s.record("The siege drags on past all endurance and is lifted.")
		s.resolveReturn(DrawTimeout, s.params.Recovery)
		return
	}
	s.turn = force.SideAttacker
}

func (s *Session) clamp() {
	s.attacker.Clamp()
	s.garrison.Clamp()
}

func (s *Session) record(line string) {
	s.log = append(s.log, line)
}

func (s *Session) emit(e Event) {
	if s.publish != nil {
		s.publish(e)
	}
}
