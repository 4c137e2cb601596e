package field

import (
	"errors"

	"github.com/cory-johannsen/castlesiege/internal/game/hex"
)

// ActionType identifies what a unit does with part of its activation.
// The zero value (ActionUnknown) is intentionally invalid.
type ActionType int

const (
	ActionUnknown ActionType = iota
	ActionMove
	ActionFace
	ActionAttack
	ActionEndTurn
)

// String returns the command name of the ActionType.
func (a ActionType) String() string {
	switch a {
	case ActionMove:
		return "move"
	case ActionFace:
		return "face"
	case ActionAttack:
		return "attack"
	case ActionEndTurn:
		return "end"
	default:
		return "unknown"
	}
}

// Action is one unit command. To is used by ActionMove; Facing by ActionFace.
type Action struct {
	Type   ActionType
	To     hex.Coord
	Facing hex.Facing
}

// Move returns an ActionMove to c.
func Move(c hex.Coord) Action { return Action{Type: ActionMove, To: c} }

// Face returns an ActionFace toward f.
func Face(f hex.Facing) Action { return Action{Type: ActionFace, Facing: f} }

// Attack returns an ActionAttack against the adjacent enemy.
func Attack() Action { return Action{Type: ActionAttack} }

// EndTurn returns an ActionEndTurn.
func EndTurn() Action { return Action{Type: ActionEndTurn} }

// Validation errors. All are returned before any state is mutated.
var (
	ErrResolved        = errors.New("field battle already resolved")
	ErrNotYourTurn     = errors.New("not this unit's activation")
	ErrUnknownAction   = errors.New("unknown field action")
	ErrNotAdjacent     = errors.New("enemy is not adjacent")
	ErrInsufficientAP  = errors.New("insufficient action points")
	ErrUnreachable     = errors.New("destination is not reachable")
	ErrAlreadyAttacked = errors.New("unit has already attacked this activation")
	ErrUnknownField    = errors.New("unknown field battle")
)

// Arc classifies where an attacker stands relative to the defender's facing.
type Arc int

const (
	ArcFront Arc = iota
	ArcFlank
	ArcRear
)

// String returns "front", "flank" or "rear".
func (a Arc) String() string {
	switch a {
	case ArcFlank:
		return "flank"
	case ArcRear:
		return "rear"
	default:
		return "front"
	}
}

// ArcOf returns the arc of a defender at defPos facing defFacing that an
// attacker at attPos strikes from. The offset between the bearing to the
// attacker and the facing selects front {0,1,5}, flank {2,4} or rear {3}.
func ArcOf(defPos hex.Coord, defFacing hex.Facing, attPos hex.Coord) Arc {
	switch (hex.Bearing(defPos, attPos) - defFacing).Normalize() {
	case 2, 4:
		return ArcFlank
	case 3:
		return ArcRear
	default:
		return ArcFront
	}
}

// Multiplier returns the damage multiplier for striking from a.
func (p Params) Multiplier(a Arc) float64 {
	switch a {
	case ArcFlank:
		return p.FlankMultiplier
	case ArcRear:
		return p.RearMultiplier
	default:
		return 1.0
	}
}

// FacingCost returns the AP needed to turn from one facing to another:
// 0 when unchanged, 1 for an adjacent direction, otherwise 2 (or the cap).
func (p Params) FacingCost(from, to hex.Facing) int {
	return min(from.Turns(to), p.FacingCostCap)
}
