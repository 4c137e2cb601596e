package battle

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/castlesiege/internal/game/field"
	"github.com/cory-johannsen/castlesiege/internal/game/force"
	"github.com/cory-johannsen/castlesiege/internal/game/siege"
	"github.com/cory-johannsen/castlesiege/internal/game/world"
)

const (
	// maxRejections bounds how often a controller may resubmit a refused
	// action before its turn falls back.
	maxRejections = 3
	// maxActivationSteps bounds the actions a unit may take in one activation.
	maxActivationSteps = 32
)

// Options tunes one run.
type Options struct {
	// Field fights a maneuver battle before the siege.
	Field bool
	// FieldOptions are passed to field.Engine.BeginField.
	FieldOptions []field.Option
	// Subscribers receive the siege's events.
	Subscribers []siege.Subscriber
}

// Report is the result of a run.
type Report struct {
	// Field is the maneuver battle's outcome, if one was fought.
	Field   *field.Outcome
	Outcome siege.Outcome
	// Turns counts submitted siege actions; Fallbacks those substituted for a
	// controller that failed.
	Turns     int
	Fallbacks int
}

// Runner drives battles between two controllers. A Runner is safe for
// concurrent use; each Run owns its sessions.
type Runner struct {
	siege  *siege.Engine
	field  *field.Engine
	pacer  Pacer
	logger *zap.Logger
}

// NewRunner creates a Runner over the engines.
//
// Precondition: se must be non-nil; fe may be nil when no field battles are
// fought. A nil pacer means NoPacing; a nil logger disables logging.
func NewRunner(se *siege.Engine, fe *field.Engine, pacer Pacer, logger *zap.Logger) *Runner {
	if se == nil {
		panic("battle.NewRunner: siege engine must not be nil")
	}
	if pacer == nil {
		pacer = NoPacing
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{siege: se, field: fe, pacer: pacer, logger: logger}
}

// Run fights attacker against garrison to a resolved outcome.
//
// A submitted action is never taken back. If ctx is cancelled before any
// action was committed the battle is abandoned unresolved and Run returns the
// context error with a zero Outcome. If it is cancelled later, both sides
// forfeit their remaining turns (end turn in the field, skip in the siege)
// until the battle resolves, and Run returns that resolved report together
// with the context error.
//
// Precondition: both controllers are non-nil.
func (r *Runner) Run(ctx context.Context, attacker *force.Force, garrison *force.Garrison, ctrls [2]Controller, opts Options) (Report, error) {
	var rep Report
	var begin []siege.Option
	for _, fn := range opts.Subscribers {
		begin = append(begin, siege.WithSubscriber(fn))
	}

	if opts.Field {
		if r.field == nil {
			return rep, errors.New("battle: field battle requested without a field engine")
		}
		fo, err := r.runField(ctx, attacker, garrison, ctrls, opts.FieldOptions)
		if err != nil && (ctx.Err() == nil || fo.Status == field.StatusActive) {
			return rep, err
		}
		rep.Field = &fo
		begin = append(begin, siege.WithFieldOutcome(fo))
	}

	h, err := r.siege.BeginSiege(attacker, garrison, begin...)
	if err != nil {
		return rep, fmt.Errorf("battle: %w", err)
	}
	defer r.siege.End(h)

	for {
		done, err := r.siege.IsResolved(h)
		if err != nil {
			return rep, err
		}
		if done {
			break
		}
		v, err := r.siege.View(h)
		if err != nil {
			return rep, err
		}
		if ctx.Err() != nil {
			if rep.Turns == 0 && rep.Field == nil {
				return rep, ctx.Err()
			}
			if _, err := r.siege.SubmitAction(h, v.Turn, siege.Action{Type: siege.ActionSkip}); err != nil {
				return rep, fmt.Errorf("battle: forfeit skip: %w", err)
			}
			rep.Turns++
			rep.Fallbacks++
			continue
		}
		fell, err := r.siegeTurn(ctx, h, ctrls[v.Turn], v)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			return rep, err
		}
		rep.Turns++
		if fell {
			rep.Fallbacks++
		}
		if err := r.pacer.Wait(ctx); err != nil && ctx.Err() == nil {
			return rep, err
		}
	}

	rep.Outcome, err = r.siege.Outcome(h)
	if err != nil {
		return rep, err
	}
	if err := ctx.Err(); err != nil {
		r.logger.Info("battle settled after cancellation",
			zap.Stringer("outcome", rep.Outcome.Kind),
			zap.Int("turns", rep.Turns),
		)
		return rep, err
	}
	return rep, nil
}

// siegeTurn obtains and submits one action for the side to move. A
// controller that panics or errors, or whose actions keep being refused,
// forfeits the turn with skip. Only context errors end the run.
func (r *Runner) siegeTurn(ctx context.Context, h siege.Handle, c Controller, v siege.View) (fellBack bool, err error) {
	for range maxRejections {
		a, err := r.decideSiege(ctx, c, v)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			r.logger.Warn("controller failed, skipping turn",
				zap.Stringer("side", v.Turn),
				zap.Int("round", v.Round),
				zap.Error(err),
			)
			break
		}
		if _, err := r.siege.SubmitAction(h, v.Turn, a); err != nil {
			r.logger.Warn("siege action refused",
				zap.Stringer("side", v.Turn),
				zap.Stringer("action", a.Type),
				zap.Error(err),
			)
			if rj, ok := c.(Rejecter); ok {
				rj.Rejected(err)
				continue
			}
			break
		}
		return false, nil
	}
	if _, err := r.siege.SubmitAction(h, v.Turn, siege.Action{Type: siege.ActionSkip}); err != nil {
		return true, fmt.Errorf("battle: fallback skip: %w", err)
	}
	return true, nil
}

// decideSiege asks c for its action, converting a panic into an error.
func (r *Runner) decideSiege(ctx context.Context, c Controller, v siege.View) (a siege.Action, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("controller panicked", zap.Stringer("side", v.Turn), zap.Any("panic", p))
			err = fmt.Errorf("controller panic: %v", p)
		}
	}()
	return c.SiegeAction(ctx, v.Turn, v)
}

// runField fights the maneuver battle and returns its outcome. Once a unit
// action has been committed, cancellation ends every remaining activation
// until the field resolves; the outcome is then returned with the context
// error. Before that, cancellation returns a zero outcome.
func (r *Runner) runField(ctx context.Context, attacker *force.Force, garrison *force.Garrison, ctrls [2]Controller, opts []field.Option) (field.Outcome, error) {
	h, err := r.field.BeginField(attacker, garrison, opts...)
	if err != nil {
		return field.Outcome{}, fmt.Errorf("battle: %w", err)
	}
	defer r.field.End(h)

	committed := false
	steps := 0
	for {
		if o, done, err := r.field.FieldOutcome(h); err != nil {
			return field.Outcome{}, err
		} else if done {
			return o, ctx.Err()
		}
		v, err := r.field.View(h)
		if err != nil {
			return field.Outcome{}, err
		}
		if ctx.Err() != nil {
			if !committed {
				return field.Outcome{}, ctx.Err()
			}
			if _, err := r.field.SubmitUnitAction(h, v.Active, field.EndTurn()); err != nil {
				return field.Outcome{}, fmt.Errorf("battle: forfeit end turn: %w", err)
			}
			continue
		}
		steps++
		res, err := r.fieldStep(ctx, h, ctrls[v.Active], v, steps > maxActivationSteps)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			return field.Outcome{}, err
		}
		committed = true
		if res.ActivationEnded || res.Outcome != nil {
			steps = 0
			if err := r.pacer.Wait(ctx); err != nil && ctx.Err() == nil {
				return field.Outcome{}, err
			}
		}
	}
}

// fieldStep obtains and submits one unit action. Failures end the unit's
// activation, as does exceeding the per-activation step bound.
func (r *Runner) fieldStep(ctx context.Context, h field.Handle, c Controller, v field.View, exhausted bool) (field.Result, error) {
	if !exhausted {
		for range maxRejections {
			a, err := r.decideField(ctx, c, v)
			if err != nil {
				if ctx.Err() != nil {
					return field.Result{}, ctx.Err()
				}
				r.logger.Warn("controller failed, ending activation",
					zap.Stringer("side", v.Active),
					zap.Error(err),
				)
				break
			}
			res, err := r.field.SubmitUnitAction(h, v.Active, a)
			if err == nil {
				return res, nil
			}
			r.logger.Warn("field action refused",
				zap.Stringer("side", v.Active),
				zap.Stringer("action", a.Type),
				zap.Error(err),
			)
			rj, ok := c.(Rejecter)
			if !ok {
				break
			}
			rj.Rejected(err)
		}
	}
	res, err := r.field.SubmitUnitAction(h, v.Active, field.EndTurn())
	if err != nil {
		return res, fmt.Errorf("battle: fallback end turn: %w", err)
	}
	return res, nil
}

func (r *Runner) decideField(ctx context.Context, c Controller, v field.View) (a field.Action, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("controller panicked", zap.Stringer("side", v.Active), zap.Any("panic", p))
			err = fmt.Errorf("controller panic: %v", p)
		}
	}()
	return c.FieldAction(ctx, v.Active, v)
}

// Fight runs engagement e from the world and merges its outcome back. A
// battle that resolved is always merged, even when ctx was cancelled part way
// through. Only a battle abandoned before its first committed action is
// aborted, returning the army home.
//
// Postcondition: a resolved outcome has been applied to m exactly once.
func (r *Runner) Fight(ctx context.Context, m *world.Manager, e *world.Engagement, ctrls [2]Controller, opts Options) (Report, error) {
	rep, err := r.Run(ctx, e.Attacker.Clone(), e.Garrison.Clone(), ctrls, opts)
	if rep.Outcome.Kind == 0 {
		if err == nil {
			err = errors.New("battle: run ended without an outcome")
		}
		if abortErr := m.Abort(e.ID); abortErr != nil {
			return rep, errors.Join(err, abortErr)
		}
		return rep, err
	}
	if applyErr := m.ApplyOutcome(e.ID, rep.Outcome); applyErr != nil {
		return rep, errors.Join(err, fmt.Errorf("battle: applying outcome: %w", applyErr))
	}
	return rep, err
}
