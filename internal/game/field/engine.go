package field

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/castlesiege/internal/game/combatmath"
	"github.com/cory-johannsen/castlesiege/internal/game/dice"
	"github.com/cory-johannsen/castlesiege/internal/game/force"
	"github.com/cory-johannsen/castlesiege/internal/game/hex"
	"github.com/cory-johannsen/castlesiege/internal/game/terrain"
)

// Handle identifies a field battle within an Engine.
type Handle uuid.UUID

// String returns the canonical UUID text.
func (h Handle) String() string { return uuid.UUID(h).String() }

// Option customises a field battle at creation.
type Option func(*beginOptions)

type beginOptions struct {
	grid *hex.Grid
}

// WithGrid fights the battle on g instead of generated terrain.
func WithGrid(g *hex.Grid) Option {
	return func(o *beginOptions) { o.grid = g }
}

// battle pairs a Field with the mutex serialising its actions.
type battle struct {
	mu    sync.Mutex
	field *Field
}

// Engine manages all active field battles, keyed by Handle.
// All methods are safe for concurrent use.
type Engine struct {
	params Params
	math   combatmath.Params
	roller *dice.Roller
	logger *zap.Logger
	gen    *terrain.Generator

	mu      sync.RWMutex
	battles map[Handle]*battle
}

// NewEngine creates an empty field Engine.
//
// Precondition: src must be non-nil. A nil logger disables logging.
// Postcondition: Returns a non-nil Engine ready for use.
func NewEngine(p Params, cm combatmath.Params, src dice.Source, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		params:  p,
		math:    cm,
		roller:  dice.NewRoller(src, logger),
		logger:  logger,
		gen:     terrain.New(p.Terrain),
		battles: make(map[Handle]*battle),
	}
}

// BeginField deploys attacker against the garrison's field army and returns
// the battle's handle.
//
// Precondition: attacker and defender must be non-nil.
// Postcondition: the returned handle is active until End is called.
func (e *Engine) BeginField(attacker *force.Force, defender *force.Garrison, opts ...Option) (Handle, error) {
	if attacker == nil || defender == nil {
		return Handle{}, fmt.Errorf("begin field: attacker and defender are required")
	}
	var o beginOptions
	for _, opt := range opts {
		opt(&o)
	}
	grid := o.grid
	if grid == nil {
		r := e.params.Radius
		grid = e.gen.Field(r, hex.Coord{Q: -r + 1}, hex.Coord{Q: r - 1})
	}
	if grid.Radius() < 2 {
		return Handle{}, fmt.Errorf("begin field: grid radius %d is too small", grid.Radius())
	}

	h := Handle(uuid.New())
	f := New(e.params, e.math, grid, attacker, &defender.Force, e.roller)

	e.mu.Lock()
	e.battles[h] = &battle{field: f}
	e.mu.Unlock()

	e.logger.Info("field battle begun",
		zap.String("handle", h.String()),
		zap.Int("attacker_soldiers", f.Unit(force.SideAttacker).Force.Soldiers),
		zap.Int("defender_soldiers", f.Unit(force.SideDefender).Force.Soldiers),
		zap.Int("radius", grid.Radius()),
	)
	return h, nil
}

func (e *Engine) lookup(h Handle) (*battle, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.battles[h]
	if !ok {
		return nil, fmt.Errorf("%s: %w", h, ErrUnknownField)
	}
	return b, nil
}

// SubmitUnitAction applies one unit action to the battle h.
//
// Postcondition: on error the battle is unchanged.
func (e *Engine) SubmitUnitAction(h Handle, side force.Side, a Action) (Result, error) {
	b, err := e.lookup(h)
	if err != nil {
		return Result{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	res, err := b.field.Apply(side, a)
	if err != nil {
		return Result{}, err
	}
	if res.Outcome != nil {
		e.logger.Info("field battle resolved",
			zap.String("handle", h.String()),
			zap.Stringer("status", res.Outcome.Status),
			zap.Stringer("winner", res.Outcome.Winner),
			zap.Int("rounds", res.Outcome.Rounds),
		)
	}
	return res, nil
}

// FieldOutcome returns the outcome of h, or false while the battle is active.
func (e *Engine) FieldOutcome(h Handle) (Outcome, bool, error) {
	b, err := e.lookup(h)
	if err != nil {
		return Outcome{}, false, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if o := b.field.Outcome(); o != nil {
		return *o, true, nil
	}
	return Outcome{}, false, nil
}

// View is a read-only copy of a battle used by decision makers.
type View struct {
	Grid   *hex.Grid
	Units  [2]Unit
	Active force.Side
	Round  int
	Params Params
	// Reach is the active unit's reachable set.
	Reach hex.Reach
}

// View returns a snapshot of battle h.
func (e *Engine) View(h Handle) (View, error) {
	b, err := e.lookup(h)
	if err != nil {
		return View{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	f := b.field
	v := View{Grid: f.Grid(), Active: f.Active(), Round: f.Round(), Params: e.params}
	for i, u := range f.units {
		cp := *u
		cp.Force = u.Force.Clone()
		v.Units[i] = cp
	}
	if f.Outcome() == nil {
		v.Reach = f.Reachable(f.Active())
	}
	return v, nil
}

// End discards battle h.
func (e *Engine) End(h Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.battles, h)
}
