// Package battle drives sieges and field battles turn by turn, asking each
// side's controller for its action.
package battle

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cory-johannsen/castlesiege/internal/game/ai"
	"github.com/cory-johannsen/castlesiege/internal/game/command"
	"github.com/cory-johannsen/castlesiege/internal/game/field"
	"github.com/cory-johannsen/castlesiege/internal/game/force"
	"github.com/cory-johannsen/castlesiege/internal/game/siege"
)

// ErrControllerClosed is returned by a human controller whose input has ended.
var ErrControllerClosed = errors.New("controller input closed")

// Controller decides one side's actions.
type Controller interface {
	SiegeAction(ctx context.Context, side force.Side, v siege.View) (siege.Action, error)
	FieldAction(ctx context.Context, side force.Side, v field.View) (field.Action, error)
}

// Rejecter is implemented by controllers that want to hear why the engine
// refused their action. The runner asks again after notifying it.
type Rejecter interface {
	Rejected(err error)
}

// AIController plays a side with an ai.Policy.
type AIController struct {
	Policy    *ai.Policy
	Archetype ai.Archetype
}

// SiegeAction asks the policy for the side's siege action.
func (c AIController) SiegeAction(_ context.Context, side force.Side, v siege.View) (siege.Action, error) {
	return c.Policy.SiegeAction(side, v, c.Archetype), nil
}

// FieldAction asks the policy for the side's next unit action.
func (c AIController) FieldAction(_ context.Context, side force.Side, v field.View) (field.Action, error) {
	return c.Policy.FieldAction(side, v, c.Archetype), nil
}

// HumanController reads typed commands from a channel. It blocks until a
// command arrives or the context ends; there is no turn timeout.
type HumanController struct {
	in       <-chan string
	out      io.Writer
	resolver *command.Resolver
}

// NewHumanController creates a controller reading command lines from in and
// writing prompts and feedback to out.
//
// Precondition: in, out and resolver must be non-nil.
func NewHumanController(in <-chan string, out io.Writer, resolver *command.Resolver) *HumanController {
	if in == nil || out == nil || resolver == nil {
		panic("battle.NewHumanController: in, out and resolver must not be nil")
	}
	return &HumanController{in: in, out: out, resolver: resolver}
}

// next blocks for the next command line.
func (c *HumanController) next(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-c.in:
		if !ok {
			return "", ErrControllerClosed
		}
		return line, nil
	}
}

// system handles status and help; it reports whether line was one of them.
func (c *HumanController) system(line, phase, status string) bool {
	cmd, _, err := c.resolver.Lookup(line)
	if err != nil || cmd.Phase != command.PhaseSystem {
		return false
	}
	switch cmd.Handler {
	case command.HandlerHelp:
		fmt.Fprint(c.out, c.resolver.Help(phase))
	case command.HandlerStatus:
		fmt.Fprintln(c.out, status)
	}
	return true
}

// SiegeAction prompts until a valid siege command is typed.
func (c *HumanController) SiegeAction(ctx context.Context, side force.Side, v siege.View) (siege.Action, error) {
	fmt.Fprintf(c.out, "Round %d/%d. Your orders, %s? ", v.Round, v.RoundCap, side)
	for {
		line, err := c.next(ctx)
		if err != nil {
			return siege.Action{}, err
		}
		if c.system(line, command.PhaseSiege, SiegeStatus(v)) {
			continue
		}
		a, err := c.resolver.SiegeAction(side, line)
		if err != nil {
			fmt.Fprintf(c.out, "%v\n", err)
			continue
		}
		return a, nil
	}
}

// FieldAction prompts until a valid field command is typed.
func (c *HumanController) FieldAction(ctx context.Context, side force.Side, v field.View) (field.Action, error) {
	u := v.Units[side]
	fmt.Fprintf(c.out, "Round %d. %s at %s facing %s, %d AP. Orders? ", v.Round, side, u.Pos, u.Facing, u.AP)
	for {
		line, err := c.next(ctx)
		if err != nil {
			return field.Action{}, err
		}
		if c.system(line, command.PhaseField, FieldStatus(v)) {
			continue
		}
		a, err := c.resolver.FieldAction(line)
		if err != nil {
			fmt.Fprintf(c.out, "%v\n", err)
			continue
		}
		return a, nil
	}
}

// Rejected reports an engine refusal to the player.
func (c *HumanController) Rejected(err error) {
	fmt.Fprintf(c.out, "Order refused: %v\n", err)
}

// SiegeStatus renders a one-line summary of v.
func SiegeStatus(v siege.View) string {
	braced := ""
	if v.Fortified {
		braced = ", braced"
	}
	return fmt.Sprintf("Round %d/%d, %s to act. Besiegers %d soldiers, %d rice. Garrison %d soldiers, wall %d/%d%s.",
		v.Round, v.RoundCap, v.Turn,
		v.Attacker.Soldiers, v.Attacker.Supply,
		v.Garrison.Soldiers, v.Garrison.Wall, v.Garrison.MaxWall, braced)
}

// FieldStatus renders a one-line summary of v.
func FieldStatus(v field.View) string {
	a, d := v.Units[force.SideAttacker], v.Units[force.SideDefender]
	return fmt.Sprintf("Round %d, %s to act. Attacker %d at %s facing %s. Defender %d at %s facing %s.",
		v.Round, v.Active,
		a.Force.Soldiers, a.Pos, a.Facing,
		d.Force.Soldiers, d.Pos, d.Facing)
}
