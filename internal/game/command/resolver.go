package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/castlesiege/internal/game/field"
	"github.com/cory-johannsen/castlesiege/internal/game/force"
	"github.com/cory-johannsen/castlesiege/internal/game/hex"
	"github.com/cory-johannsen/castlesiege/internal/game/siege"
)

// Resolution errors. All are returned before anything is submitted.
var (
	ErrEmptyCommand   = errors.New("empty command")
	ErrUnknownCommand = errors.New("unknown command")
	ErrWrongPhase     = errors.New("command does not apply to this battle")
	ErrBadArguments   = errors.New("bad command arguments")
)

// SiegeEngine is the part of siege.Engine the resolver submits to.
type SiegeEngine interface {
	SubmitAction(h siege.Handle, side force.Side, a siege.Action) (siege.RoundResult, error)
}

// FieldEngine is the part of field.Engine the resolver submits to.
type FieldEngine interface {
	SubmitUnitAction(h field.Handle, side force.Side, a field.Action) (field.Result, error)
}

// Resolver turns command lines into engine actions.
// It holds no battle state and is safe for concurrent use.
type Resolver struct {
	registry *Registry
	logger   *zap.Logger
}

// NewResolver creates a Resolver over reg.
//
// Precondition: reg must be non-nil. A nil logger disables logging.
func NewResolver(reg *Registry, logger *zap.Logger) *Resolver {
	if reg == nil {
		panic("command.NewResolver: registry must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{registry: reg, logger: logger}
}

// Registry returns the resolver's command registry.
func (r *Resolver) Registry() *Registry { return r.registry }

// Lookup parses line and finds its command.
//
// Postcondition: on success the command is non-nil.
func (r *Resolver) Lookup(line string) (*Command, ParseResult, error) {
	pr := Parse(line)
	if pr.Command == "" {
		return nil, pr, ErrEmptyCommand
	}
	cmd, ok := r.registry.Resolve(pr.Command)
	if !ok {
		return nil, pr, fmt.Errorf("%q: %w", pr.Command, ErrUnknownCommand)
	}
	return cmd, pr, nil
}

// SiegeAction resolves line into a siege action for side.
//
// Postcondition: on success the action is allowed for side.
func (r *Resolver) SiegeAction(side force.Side, line string) (siege.Action, error) {
	cmd, pr, err := r.Lookup(line)
	if err != nil {
		return siege.Action{}, err
	}
	if cmd.Phase != PhaseSiege {
		return siege.Action{}, fmt.Errorf("%q in a siege: %w", cmd.Name, ErrWrongPhase)
	}
	t, err := siege.ParseAction(cmd.Name)
	if err != nil {
		return siege.Action{}, err
	}
	if !t.AllowedFor(side) {
		return siege.Action{}, fmt.Errorf("%s by %s: %w", t, side, siege.ErrActionNotAllowed)
	}
	a := siege.Action{Type: t}
	switch {
	case len(pr.Args) == 0:
	case t == siege.ActionRetreat && side == force.SideDefender && len(pr.Args) == 1:
		a.Destination = pr.Args[0]
	default:
		return siege.Action{}, fmt.Errorf("%s takes %q: %w", t, pr.RawArgs, ErrBadArguments)
	}
	return a, nil
}

// FieldAction resolves line into a unit action.
func (r *Resolver) FieldAction(line string) (field.Action, error) {
	cmd, pr, err := r.Lookup(line)
	if err != nil {
		return field.Action{}, err
	}
	if cmd.Phase != PhaseField {
		return field.Action{}, fmt.Errorf("%q in a field battle: %w", cmd.Name, ErrWrongPhase)
	}
	switch cmd.Handler {
	case HandlerMove:
		if len(pr.Args) != 2 {
			return field.Action{}, fmt.Errorf("usage %q: %w", cmd.Usage, ErrBadArguments)
		}
		q, errQ := strconv.Atoi(pr.Args[0])
		rr, errR := strconv.Atoi(pr.Args[1])
		if errQ != nil || errR != nil {
			return field.Action{}, fmt.Errorf("coordinates %q: %w", pr.RawArgs, ErrBadArguments)
		}
		return field.Move(hex.Coord{Q: q, R: rr}), nil
	case HandlerFace:
		if len(pr.Args) == 0 {
			return field.Action{}, fmt.Errorf("usage %q: %w", cmd.Usage, ErrBadArguments)
		}
		f, err := hex.ParseFacing(Compass(pr.Args))
		if err != nil {
			return field.Action{}, fmt.Errorf("%w: %w", ErrBadArguments, err)
		}
		return field.Face(f), nil
	case HandlerAttack, HandlerEndTurn:
		if len(pr.Args) != 0 {
			return field.Action{}, fmt.Errorf("%s takes no arguments: %w", cmd.Name, ErrBadArguments)
		}
		if cmd.Handler == HandlerAttack {
			return field.Attack(), nil
		}
		return field.EndTurn(), nil
	default:
		return field.Action{}, fmt.Errorf("%q: %w", cmd.Name, ErrUnknownCommand)
	}
}

// SubmitSiege resolves line and submits it to session h as side.
//
// Postcondition: on error nothing was submitted or the engine rejected the
// action without mutating the session.
func (r *Resolver) SubmitSiege(e SiegeEngine, h siege.Handle, side force.Side, line string) (siege.RoundResult, error) {
	a, err := r.SiegeAction(side, line)
	if err != nil {
		return siege.RoundResult{}, err
	}
	r.logger.Debug("siege command",
		zap.String("handle", h.String()),
		zap.Stringer("side", side),
		zap.String("line", line),
		zap.Stringer("action", a.Type),
	)
	return e.SubmitAction(h, side, a)
}

// SubmitField resolves line and submits it to battle h as side.
func (r *Resolver) SubmitField(e FieldEngine, h field.Handle, side force.Side, line string) (field.Result, error) {
	a, err := r.FieldAction(line)
	if err != nil {
		return field.Result{}, err
	}
	r.logger.Debug("field command",
		zap.String("handle", h.String()),
		zap.Stringer("side", side),
		zap.String("line", line),
		zap.Stringer("action", a.Type),
	)
	return e.SubmitUnitAction(h, side, a)
}

// FormatSiege renders a as the command line that resolves back to it.
func FormatSiege(a siege.Action) string {
	if a.Destination != "" {
		return a.Type.String() + " " + a.Destination
	}
	return a.Type.String()
}

// FormatField renders a as the command line that resolves back to it.
func FormatField(a field.Action) string {
	switch a.Type {
	case field.ActionMove:
		return fmt.Sprintf("move %d %d", a.To.Q, a.To.R)
	case field.ActionFace:
		return "face " + a.Facing.String()
	default:
		return a.Type.String()
	}
}

// Help lists the commands of phase, one per line.
func (r *Resolver) Help(phase string) string {
	var b strings.Builder
	for _, cmd := range r.registry.CommandsByPhase()[phase] {
		usage := cmd.Usage
		if usage == "" {
			usage = cmd.Name
		}
		fmt.Fprintf(&b, "%-24s %s", usage, cmd.Help)
		if len(cmd.Aliases) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(cmd.Aliases, ", "))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
