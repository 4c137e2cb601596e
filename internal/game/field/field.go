package field

import (
	"fmt"
	"math"

	"github.com/cory-johannsen/castlesiege/internal/game/combatmath"
	"github.com/cory-johannsen/castlesiege/internal/game/dice"
	"github.com/cory-johannsen/castlesiege/internal/game/force"
	"github.com/cory-johannsen/castlesiege/internal/game/hex"
	"github.com/cory-johannsen/castlesiege/internal/game/officer"
)

// Unit is one side's formation on the field.
//
// Invariant: AP in [0, Mobility]; the two units never share a cell.
type Unit struct {
	Side     force.Side
	Pos      hex.Coord
	Facing   hex.Facing
	Mobility int
	AP       int
	Force    *force.Force
	Stats    officer.Stats

	engaged  bool
	moved    bool
	attacked bool
}

// Engaged reports whether the unit began its current activation adjacent to the enemy.
func (u *Unit) Engaged() bool { return u.engaged }

// Attacked reports whether the unit has attacked during its current activation.
func (u *Unit) Attacked() bool { return u.attacked }

// Status is the state of a field battle.
type Status int

const (
	StatusActive Status = iota
	StatusDecided
	StatusFallThrough
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusDecided:
		return "decided"
	case StatusFallThrough:
		return "fall_through"
	default:
		return "unknown"
	}
}

// Snapshot is the soldier and supply count a side carries out of the field.
type Snapshot struct {
	Soldiers int
	Supply   int
}

// Outcome is the final result of a field battle.
type Outcome struct {
	Status Status
	// Winner is meaningful only when Status is StatusDecided.
	Winner     force.Side
	Rounds     int
	Attacker   Snapshot
	Defender   Snapshot
	Casualties [2]int
}

// Decisive reports whether the field produced a definitive winner.
func (o Outcome) Decisive() bool { return o.Status == StatusDecided }

// Result reports what one submitted action did.
type Result struct {
	Side       force.Side
	Action     Action
	APSpent    int
	Path       []hex.Coord
	Arc        Arc
	Multiplier float64
	Damage     int
	Counter    int
	Narrative  []string
	// ActivationEnded is true when control passed to the other unit.
	ActivationEnded bool
	// RoundEnded is true when this action completed a full round.
	RoundEnded bool
	Outcome    *Outcome
}

// Field is the live state of one maneuver battle. It is not safe for
// concurrent use; Engine serialises access.
type Field struct {
	params Params
	math   combatmath.Params
	grid   *hex.Grid
	roller *dice.Roller

	units      [2]*Unit
	active     force.Side
	acted      [2]bool
	round      int
	casualties [2]int
	outcome    *Outcome
}

// New deploys attacker and defender on grid and begins the attacker's first
// activation. Both forces are cloned; the field never aliases caller state.
//
// Precondition: grid radius >= 2; attacker and defender non-nil.
// Postcondition: Round() == 1, Active() == force.SideAttacker.
func New(p Params, cm combatmath.Params, grid *hex.Grid, attacker, defender *force.Force, roller *dice.Roller) *Field {
	r := grid.Radius()
	f := &Field{params: p, math: cm, grid: grid, roller: roller, round: 1}
	f.units[force.SideAttacker] = f.deploy(force.SideAttacker, attacker, hex.Coord{Q: -r + 1}, hex.East)
	f.units[force.SideDefender] = f.deploy(force.SideDefender, defender, hex.Coord{Q: r - 1}, hex.West)
	f.activate(force.SideAttacker)
	return f
}

func (f *Field) deploy(side force.Side, src *force.Force, at hex.Coord, facing hex.Facing) *Unit {
	fc := src.Clone()
	fc.Side = side
	fc.Clamp()
	mob := f.params.Mobility
	if fc.Soldiers > 0 && fc.Equipment.Cavalry*2 >= fc.Soldiers {
		mob += f.params.CavalryMobilityBonus
	}
	f.grid.SetCost(at, max(f.grid.Cost(at), 1))
	return &Unit{
		Side:     side,
		Pos:      at,
		Facing:   facing,
		Mobility: mob,
		Force:    fc,
		Stats:    combatmath.AggregateStats(f.math, fc.Officers).Stats,
	}
}

// Grid returns the battlefield.
func (f *Field) Grid() *hex.Grid { return f.grid }

// Unit returns the unit for side.
func (f *Field) Unit(side force.Side) *Unit { return f.units[side] }

// Active returns the side whose activation it is.
func (f *Field) Active() force.Side { return f.active }

// Round returns the current round, starting at 1.
func (f *Field) Round() int { return f.round }

// Outcome returns the final outcome, or nil while the battle is active.
func (f *Field) Outcome() *Outcome { return f.outcome }

// Reachable returns the cells side can move to with its remaining AP.
func (f *Field) Reachable(side force.Side) hex.Reach {
	u := f.units[side]
	enemy := f.units[side.Opponent()]
	return f.grid.Reachable(hex.Query{
		From:        u.Pos,
		Enemy:       enemy.Pos,
		Budget:      u.AP,
		ZOCPenalty:  f.params.ZOCPenalty,
		Disengaging: u.engaged && !u.moved,
	})
}

// activate starts side's activation: AP reset to mobility and engagement
// determined from the current positions.
func (f *Field) activate(side force.Side) {
	f.active = side
	u := f.units[side]
	u.AP = u.Mobility
	u.engaged = hex.Adjacent(u.Pos, f.units[side.Opponent()].Pos)
	u.moved = false
	u.attacked = false
}

// Apply validates and resolves one action for side.
//
// Precondition: none; every violation is reported as an error.
// Postcondition: on error no state has changed. On success the action is
// applied, the activation ends when AP reach 0 or on ActionEndTurn, and
// Outcome is set once the battle resolves.
func (f *Field) Apply(side force.Side, a Action) (Result, error) {
	if f.outcome != nil {
		return Result{}, ErrResolved
	}
	if side != f.active {
		return Result{}, fmt.Errorf("%s: %w", side, ErrNotYourTurn)
	}
	u := f.units[side]
	res := Result{Side: side, Action: a}

	switch a.Type {
	case ActionMove:
		if err := f.move(u, a.To, &res); err != nil {
			return Result{}, err
		}
	case ActionFace:
		cost := f.params.FacingCost(u.Facing, a.Facing.Normalize())
		if cost > u.AP {
			return Result{}, fmt.Errorf("face %s needs %d AP, have %d: %w", a.Facing, cost, u.AP, ErrInsufficientAP)
		}
		u.AP -= cost
		u.Facing = a.Facing.Normalize()
		res.APSpent = cost
		res.Narrative = append(res.Narrative, fmt.Sprintf("The %s wheels to face %s.", side, u.Facing))
	case ActionAttack:
		if err := f.attack(u, &res); err != nil {
			return Result{}, err
		}
	case ActionEndTurn:
		res.Narrative = append(res.Narrative, fmt.Sprintf("The %s holds position.", side))
		f.endActivation(&res)
		return res, nil
	default:
		return Result{}, fmt.Errorf("%d: %w", a.Type, ErrUnknownAction)
	}

	if f.decide() {
		res.Outcome = f.outcome
		return res, nil
	}
	if u.AP == 0 {
		f.endActivation(&res)
	}
	return res, nil
}

func (f *Field) move(u *Unit, to hex.Coord, res *Result) error {
	if to == u.Pos {
		return fmt.Errorf("move to own cell %s: %w", to, ErrUnreachable)
	}
	reach := f.Reachable(u.Side)
	cost, ok := reach.Cost(to)
	if !ok {
		return fmt.Errorf("move to %s: %w", to, ErrUnreachable)
	}
	if cost > u.AP {
		return fmt.Errorf("move to %s needs %d AP, have %d: %w", to, cost, u.AP, ErrInsufficientAP)
	}
	path, _ := reach.Path(to)
	prev := u.Pos
	if len(path) > 1 {
		prev = path[len(path)-2]
	}
	u.Facing = hex.Bearing(prev, to)
	u.Pos = to
	u.AP -= cost
	u.moved = true
	res.APSpent = cost
	res.Path = path
	res.Narrative = append(res.Narrative, fmt.Sprintf("The %s advances to %s, facing %s (%d AP).", u.Side, to, u.Facing, cost))
	return nil
}

func (f *Field) attack(u *Unit, res *Result) error {
	enemy := f.units[u.Side.Opponent()]
	if !hex.Adjacent(u.Pos, enemy.Pos) {
		return fmt.Errorf("attack from %s on %s: %w", u.Pos, enemy.Pos, ErrNotAdjacent)
	}
	if u.attacked {
		return ErrAlreadyAttacked
	}
	if u.AP < 1 {
		return fmt.Errorf("attack needs 1 AP, have %d: %w", u.AP, ErrInsufficientAP)
	}

	dmg := combatmath.Damage(f.math, combatmath.DamageInput{
		Striker: sideOf(u),
		Target:  sideOf(enemy),
		Profile: f.math.Charge,
	}, f.roller)
	arc := ArcOf(enemy.Pos, enemy.Facing, u.Pos)
	mult := f.params.Multiplier(arc)
	dealt := enemy.Force.Lose(int(math.Round(float64(dmg.Soldiers) * mult)))
	counter := u.Force.Lose(combatmath.Retaliation(f.math, dealt, dmg.CounterRisk))
	f.casualties[enemy.Side] += dealt
	f.casualties[u.Side] += counter
	u.Force.Clamp()
	enemy.Force.Clamp()

	u.AP--
	u.attacked = true
	res.APSpent = 1
	res.Arc = arc
	res.Multiplier = mult
	res.Damage = dealt
	res.Counter = counter
	res.Narrative = append(res.Narrative,
		fmt.Sprintf("The %s strikes the %s's %s for %d casualties (x%.1f).", u.Side, enemy.Side, arc, dealt, mult))
	if counter > 0 {
		res.Narrative = append(res.Narrative, fmt.Sprintf("The %s loses %d in the counterblow.", u.Side, counter))
	}
	return nil
}

func sideOf(u *Unit) combatmath.Side {
	return combatmath.Side{
		Stats:       u.Stats,
		Soldiers:    u.Force.Soldiers,
		Morale:      u.Force.Morale,
		Training:    u.Force.Training,
		RangedShare: u.Force.RangedShare(),
	}
}

// endActivation passes control to the other unit, closing the round when both
// have acted.
func (f *Field) endActivation(res *Result) {
	res.ActivationEnded = true
	f.acted[f.active] = true
	if f.acted[force.SideAttacker] && f.acted[force.SideDefender] {
		res.RoundEnded = true
		f.closeRound(res)
		if f.outcome != nil {
			res.Outcome = f.outcome
			return
		}
	}
	f.activate(f.active.Opponent())
}

func (f *Field) closeRound(res *Result) {
	for _, u := range f.units {
		if u.Force.Soldiers == 0 {
			continue
		}
		need := max(int(math.Round(float64(u.Force.Soldiers)*f.params.SupplyPerSoldier)), 1)
		used := u.Force.Consume(need)
		res.Narrative = append(res.Narrative, fmt.Sprintf("The %s consumes %d supply.", u.Side, used))
	}
	f.acted = [2]bool{}
	if f.decide() {
		return
	}
	f.round++
	if f.round > f.params.TurnLimit {
		f.finish(StatusFallThrough, force.SideDefender)
		res.Narrative = append(res.Narrative, "Neither side breaks; the armies fall back to the walls.")
	}
}

// decide resolves the battle when either side has no soldiers or no supply.
// An attacker out of soldiers or supply loses even if the defender is too.
func (f *Field) decide() bool {
	att, def := f.units[force.SideAttacker].Force, f.units[force.SideDefender].Force
	switch {
	case att.Soldiers == 0 || att.Supply == 0:
		f.finish(StatusDecided, force.SideDefender)
	case def.Soldiers == 0 || def.Supply == 0:
		f.finish(StatusDecided, force.SideAttacker)
	default:
		return false
	}
	return true
}

func (f *Field) finish(status Status, winner force.Side) {
	att, def := f.units[force.SideAttacker].Force, f.units[force.SideDefender].Force
	f.outcome = &Outcome{
		Status:     status,
		Winner:     winner,
		Rounds:     min(f.round, f.params.TurnLimit),
		Attacker:   Snapshot{Soldiers: att.Soldiers, Supply: att.Supply},
		Defender:   Snapshot{Soldiers: def.Soldiers, Supply: def.Supply},
		Casualties: f.casualties,
	}
}
