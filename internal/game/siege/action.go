package siege

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/castlesiege/internal/game/force"
)

// ActionType identifies what a side does with its turn.
// The zero value (ActionUnknown) is intentionally invalid.
type ActionType int

const (
	ActionUnknown ActionType = iota
	ActionCharge
	ActionRanged
	ActionSiege
	ActionArson
	ActionSabotage
	ActionRetreat
	ActionSkip
	ActionSortie
	ActionHold
	ActionRepair
)

// String returns the canonical action name.
func (a ActionType) String() string {
	switch a {
	case ActionCharge:
		return "charge"
	case ActionRanged:
		return "ranged"
	case ActionSiege:
		return "siege"
	case ActionArson:
		return "arson"
	case ActionSabotage:
		return "sabotage"
	case ActionRetreat:
		return "retreat"
	case ActionSkip:
		return "skip"
	case ActionSortie:
		return "sortie-charge"
	case ActionHold:
		return "hold"
	case ActionRepair:
		return "repair"
	default:
		return "unknown"
	}
}

var attackerActions = []ActionType{ActionCharge, ActionRanged, ActionSiege, ActionArson, ActionSabotage, ActionRetreat, ActionSkip}
var defenderActions = []ActionType{ActionSortie, ActionRanged, ActionHold, ActionRepair, ActionArson, ActionSabotage, ActionRetreat, ActionSkip}

// ActionsFor returns the actions side may take, in menu order.
func ActionsFor(side force.Side) []ActionType {
	if side == force.SideAttacker {
		return append([]ActionType(nil), attackerActions...)
	}
	return append([]ActionType(nil), defenderActions...)
}

// AllowedFor reports whether side may take a.
func (a ActionType) AllowedFor(side force.Side) bool {
	list := defenderActions
	if side == force.SideAttacker {
		list = attackerActions
	}
	for _, x := range list {
		if x == a {
			return true
		}
	}
	return false
}

// ParseAction returns the action with canonical name s.
func ParseAction(s string) (ActionType, error) {
	for a := ActionCharge; a <= ActionRepair; a++ {
		if a.String() == s {
			return a, nil
		}
	}
	return ActionUnknown, fmt.Errorf("%q: %w", s, ErrUnknownAction)
}

// Action is one turn's command. Destination optionally names the retreat
// target for a defender retreat; empty picks the best option.
type Action struct {
	Type        ActionType
	Destination string
}

// Validation and lookup errors. All are returned before any state is mutated.
var (
	ErrNotStarted          = errors.New("siege has not commenced")
	ErrResolved            = errors.New("siege already resolved")
	ErrNotResolved         = errors.New("siege not yet resolved")
	ErrNotYourTurn         = errors.New("not this side's turn")
	ErrActionNotAllowed    = errors.New("action not allowed for this side")
	ErrUnknownAction       = errors.New("unknown siege action")
	ErrInvalidDestination  = errors.New("retreat destination is not adjacent")
	ErrUnknownSession      = errors.New("unknown siege session")
	ErrAlreadyCommenced    = errors.New("siege already commenced")
	ErrInvalidParticipants = errors.New("attacker and garrison are required")
)
