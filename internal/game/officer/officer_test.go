package officer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/castlesiege/internal/game/officer"
)

func TestSanitize_EmptyListYieldsPlaceholder(t *testing.T) {
	out := officer.Sanitize(nil)
	require.Len(t, out, 1)
	assert.True(t, out[0].IsPlaceholder())

	out = officer.Sanitize([]*officer.Officer{nil, nil})
	require.Len(t, out, 1)
	assert.True(t, out[0].IsPlaceholder())
}

func TestSanitize_FillsRoleAndClamps(t *testing.T) {
	in := []*officer.Officer{{ID: "a", Name: "A", Stats: officer.Stats{Leadership: 150, Strength: -3}}}
	out := officer.Sanitize(in)
	require.Len(t, out, 1)
	assert.Equal(t, 100.0, out[0].Stats.Leadership)
	assert.Equal(t, 0.0, out[0].Stats.Strength)
	assert.Equal(t, "retainer", officer.RoleName(out[0].Role))
	assert.Nil(t, in[0].Role, "input must not be mutated")
}

func TestIdeology_SharesAndOpposes(t *testing.T) {
	assert.True(t, officer.IdeologyReformist.Shares(officer.IdeologyReformist))
	assert.False(t, officer.IdeologyNone.Shares(officer.IdeologyNone))
	assert.True(t, officer.IdeologyReformist.Opposes(officer.IdeologyTraditionalist))
	assert.True(t, officer.IdeologyZealot.Opposes(officer.IdeologyMercantile))
	assert.False(t, officer.IdeologyReformist.Opposes(officer.IdeologyMercantile))
	assert.False(t, officer.IdeologyNone.Opposes(officer.IdeologyReformist))
}

func TestParseRole_RoundTripsNames(t *testing.T) {
	for _, name := range []string{"lord", "castellan", "strategist", "retainer"} {
		r, err := officer.ParseRole(name)
		require.NoError(t, err)
		assert.Equal(t, name, officer.RoleName(r))
	}
	_, err := officer.ParseRole("shogun")
	assert.Error(t, err)
}

func TestRolePredicates(t *testing.T) {
	lord := officer.New("l", "Lord", officer.Stats{}, officer.IdeologyNone, officer.Lord{})
	assert.True(t, lord.IsLord())
	assert.False(t, lord.IsCastellan())
	plain := officer.New("r", "Retainer", officer.Stats{}, officer.IdeologyNone, nil)
	assert.False(t, plain.IsLord())
	assert.Equal(t, "Retainer (retainer)", plain.String())
}

func TestParseIdeology(t *testing.T) {
	id, err := officer.ParseIdeology(" Reformist ")
	require.NoError(t, err)
	assert.Equal(t, officer.IdeologyReformist, id)
	_, err = officer.ParseIdeology("anarchist")
	assert.Error(t, err)
}

func TestStats_Clamp_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := officer.Stats{
			Leadership:   rapid.Float64Range(-500, 500).Draw(rt, "l"),
			Strength:     rapid.Float64Range(-500, 500).Draw(rt, "s"),
			Intelligence: rapid.Float64Range(-500, 500).Draw(rt, "i"),
			Politics:     rapid.Float64Range(-500, 500).Draw(rt, "p"),
			Charm:        rapid.Float64Range(-500, 500).Draw(rt, "c"),
		}.Clamp()
		for _, v := range []float64{s.Leadership, s.Strength, s.Intelligence, s.Politics, s.Charm} {
			assert.GreaterOrEqual(rt, v, 0.0)
			assert.LessOrEqual(rt, v, 100.0)
		}
	})
}
