package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/castlesiege/internal/game/siege"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.NotNil(t, r)
	assert.Greater(t, len(r.Commands()), 0)
}

func TestResolve_CanonicalName(t *testing.T) {
	r := DefaultRegistry()

	cmd, ok := r.Resolve("charge")
	assert.True(t, ok)
	assert.Equal(t, "charge", cmd.Name)
	assert.Equal(t, HandlerSiegeAction, cmd.Handler)
}

func TestResolve_Alias(t *testing.T) {
	r := DefaultRegistry()

	cmd, ok := r.Resolve("def_attack")
	assert.True(t, ok)
	assert.Equal(t, "hold", cmd.Name)
}

func TestResolve_NotFound(t *testing.T) {
	r := DefaultRegistry()

	_, ok := r.Resolve("teleport")
	assert.False(t, ok)
}

func TestResolve_EverySiegeActionHasACommand(t *testing.T) {
	r := DefaultRegistry()
	for a := siege.ActionCharge; a <= siege.ActionRepair; a++ {
		cmd, ok := r.Resolve(a.String())
		require.True(t, ok, "action %q has no command", a)
		assert.Equal(t, PhaseSiege, cmd.Phase)
		assert.Equal(t, HandlerSiegeAction, cmd.Handler)
	}
}

func TestResolve_FieldCommands(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		input   string
		handler string
	}{
		{"move", HandlerMove},
		{"mv", HandlerMove},
		{"face", HandlerFace},
		{"turn", HandlerFace},
		{"attack", HandlerAttack},
		{"strike", HandlerAttack},
		{"end", HandlerEndTurn},
		{"done", HandlerEndTurn},
	}

	for _, tt := range tests {
		cmd, ok := r.Resolve(tt.input)
		require.True(t, ok, "input %q not found", tt.input)
		assert.Equal(t, tt.handler, cmd.Handler, "input %q wrong handler", tt.input)
		assert.Equal(t, PhaseField, cmd.Phase)
	}
}

func TestNewRegistry_DuplicateName(t *testing.T) {
	cmds := []Command{
		{Name: "test", Handler: "a"},
		{Name: "test", Handler: "b"},
	}
	_, err := NewRegistry(cmds)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate command name")
}

func TestNewRegistry_DuplicateAlias(t *testing.T) {
	cmds := []Command{
		{Name: "test1", Aliases: []string{"t"}, Handler: "a"},
		{Name: "test2", Aliases: []string{"t"}, Handler: "b"},
	}
	_, err := NewRegistry(cmds)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate alias")
}

func TestNewRegistry_AliasShadowsName(t *testing.T) {
	cmds := []Command{
		{Name: "hold", Handler: "a"},
		{Name: "brace", Aliases: []string{"hold"}, Handler: "b"},
	}
	_, err := NewRegistry(cmds)
	assert.Error(t, err)
}

func TestCommandsByPhase(t *testing.T) {
	r := DefaultRegistry()
	phases := r.CommandsByPhase()

	assert.Contains(t, phases, PhaseSiege)
	assert.Contains(t, phases, PhaseField)
	assert.Contains(t, phases, PhaseSystem)
	assert.Len(t, phases[PhaseSiege], 10)
	assert.Len(t, phases[PhaseField], 4)
	assert.Equal(t, "arson", phases[PhaseSiege][0].Name)
}

func TestPropertyAllAliasesResolveToCanonical(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := DefaultRegistry()
		cmds := r.Commands()
		idx := rapid.IntRange(0, len(cmds)-1).Draw(t, "cmd_idx")
		cmd := cmds[idx]

		// Canonical name should resolve
		resolved, ok := r.Resolve(cmd.Name)
		if !ok {
			t.Fatalf("canonical name %q did not resolve", cmd.Name)
		}
		if resolved.Name != cmd.Name {
			t.Fatalf("canonical name %q resolved to %q", cmd.Name, resolved.Name)
		}

		// All aliases should resolve to same command
		for _, alias := range cmd.Aliases {
			aliasResolved, ok := r.Resolve(alias)
			if !ok {
				t.Fatalf("alias %q did not resolve", alias)
			}
			if aliasResolved.Name != cmd.Name {
				t.Fatalf("alias %q resolved to %q, expected %q", alias, aliasResolved.Name, cmd.Name)
			}
		}
	})
}
