package siege

import (
	"github.com/cory-johannsen/castlesiege/internal/game/combatmath"
	"github.com/cory-johannsen/castlesiege/internal/game/force"
	"github.com/cory-johannsen/castlesiege/internal/game/officer"
)

// State is the phase of a session.
type State int

const (
	StateInitiated State = iota
	StateRoundExchange
	StateResolved
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateInitiated:
		return "initiated"
	case StateRoundExchange:
		return "round_exchange"
	case StateResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// OutcomeKind is the canonical terminal result of a siege.
type OutcomeKind int

const (
	AttackerVictory OutcomeKind = iota + 1
	AttackerDefeat
	DefenderRetreat
	DrawTimeout
)

// String returns the outcome name.
func (k OutcomeKind) String() string {
	switch k {
	case AttackerVictory:
		return "attacker_victory"
	case AttackerDefeat:
		return "attacker_defeat"
	case DefenderRetreat:
		return "defender_retreat"
	case DrawTimeout:
		return "draw_timeout"
	default:
		return "unknown"
	}
}

// Holding is the absolute final state of the besieged stronghold.
type Holding struct {
	StrongholdID string
	Soldiers     int
	Gold         int
	Rice         int
	Wall         int
	// Equipment is the specialists among Soldiers.
	Equipment force.Equipment
	Officers  []*officer.Officer
}

// Reinforcement is an additive transfer of troops, specialists, stores and
// officers into another stronghold: the attacker's army returning home, or a
// garrison and escaped officers falling back.
type Reinforcement struct {
	StrongholdID string
	Soldiers     int
	Gold         int
	Rice         int
	Equipment    force.Equipment
	Officers     []*officer.Officer
}

// Transfer directs that a stronghold changes hands to the attacker's owner.
type Transfer struct {
	StrongholdID string
	// FromSourceID is the stronghold the attacking army marched from; its
	// owner becomes the new owner.
	FromSourceID string
}

// Outcome is everything a resolved siege hands back to the world.
type Outcome struct {
	Kind       OutcomeKind
	Rounds     int
	Casualties [2]int
	// Recovered is the number of attacker casualties returned to the ranks.
	Recovered      int
	Besieged       Holding
	Transfer       *Transfer
	Reinforcements []Reinforcement
	Prisoners      []*force.Prisoner
	// LootLoss is the fraction of the captured stronghold's gold and rice lost.
	LootLoss float64
	// CarryLoss is the fraction of stores abandoned by a retreating garrison.
	CarryLoss float64
	Attacker  *force.Force
	Garrison  *force.Garrison
	Log       []string
}

// Damage is soldier and wall damage actually applied.
type Damage struct {
	Soldiers int
	Wall     int
}

// RoundResult reports what one submitted action did.
type RoundResult struct {
	Round  int
	Actor  force.Side
	Action ActionType
	// Unmitigated is the formula output before the fortified halving; nil for
	// actions that do not use the damage formula.
	Unmitigated *combatmath.DamageResult
	Applied     Damage
	Retaliation int
	Covert      *combatmath.CovertResult
	Repaired    int
	Spent       int
	// Fortified is the flag after the action resolved.
	Fortified bool
	Narrative []string
	Outcome   *Outcome
}

// Event is emitted by a session to its subscribers. Events are values; a
// subscriber cannot reach session state through them.
type Event interface{ isEvent() }

// RoundResolved is emitted after every accepted action.
type RoundResolved struct {
	Handle Handle
	Result RoundResult
}

// SessionEnded is emitted exactly once, when a session resolves.
type SessionEnded struct {
	Handle  Handle
	Outcome Outcome
}

func (RoundResolved) isEvent() {}
func (SessionEnded) isEvent()  {}

// Subscriber receives session events synchronously, in order.
type Subscriber func(Event)
