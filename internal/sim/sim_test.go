package sim_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/castlesiege/internal/config"
	"github.com/cory-johannsen/castlesiege/internal/game/officer"
	"github.com/cory-johannsen/castlesiege/internal/game/siege"
	"github.com/cory-johannsen/castlesiege/internal/game/world"
	"github.com/cory-johannsen/castlesiege/internal/sim"
)

const contentDir = "../../content"

func contentConfig() config.Config {
	cfg := config.Default()
	cfg.AI.ArchetypeFile = filepath.Join(contentDir, "archetypes.yaml")
	cfg.Scripting.DoctrineDir = filepath.Join(contentDir, "doctrines")
	cfg.Scripting.ScriptDir = filepath.Join(contentDir, "scripts")
	cfg.Battle.Seed = 1
	return cfg
}

func newSim(t *testing.T, cfg config.Config) *sim.Simulator {
	t.Helper()
	s, err := sim.New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func scenario(t *testing.T, name string) *world.Scenario {
	t.Helper()
	sc, err := world.LoadScenarioFromFile(filepath.Join(contentDir, "scenarios", name))
	require.NoError(t, err)
	return sc
}

func TestNew_Defaults(t *testing.T) {
	s := newSim(t, config.Default())
	assert.Equal(t, "balanced", s.Archetype("").ID)
	assert.Equal(t, "aggressive", s.Archetype("aggressive").ID)
	assert.Equal(t, "balanced", s.Archetype("berserk").ID, "unknown archetypes fall back")
	assert.NotNil(t, s.Policy())
}

func TestNew_LoadsContent(t *testing.T) {
	s := newSim(t, contentConfig())
	assert.Equal(t, "turtle", s.Archetype("turtle").Doctrine)
	assert.Equal(t, "stormer", s.Archetype("stormer").Doctrine)
}

func TestNew_BadArchetypeFile(t *testing.T) {
	cfg := config.Default()
	cfg.AI.ArchetypeFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := sim.New(cfg, nil)
	assert.Error(t, err)
}

func TestNew_BadScript(t *testing.T) {
	dir := t.TempDir()
	doctrines := filepath.Join(dir, "doctrines")
	scripts := filepath.Join(dir, "scripts", "broken")
	require.NoError(t, os.MkdirAll(doctrines, 0755))
	require.NoError(t, os.MkdirAll(scripts, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(doctrines, "broken.yaml"), []byte(`
domain:
  id: broken
  tasks: [{id: behave}]
  methods: [{task: behave, id: wait, subtasks: [wait]}]
  operators: [{id: wait, action: skip}]
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(scripts, "bad.lua"), []byte("function (("), 0644))

	cfg := config.Default()
	cfg.Scripting.DoctrineDir = doctrines
	cfg.Scripting.ScriptDir = filepath.Join(dir, "scripts")
	_, err := sim.New(cfg, nil)
	assert.Error(t, err)
}

func TestPlay_AIBattlesMergeIntoMap(t *testing.T) {
	s := newSim(t, contentConfig())
	sc := scenario(t, "mountain_pass.yaml")

	m, reports, err := s.Play(context.Background(), sc, nil, nil)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	require.False(t, reports[0].Skipped, "Shingen marches on Suwa")
	for _, r := range reports {
		require.NotNil(t, r.Assessment)
		if r.Skipped {
			assert.False(t, r.Assessment.Attack)
			assert.Zero(t, r.Report.Outcome.Kind)
			continue
		}
		assert.NotZero(t, r.Report.Outcome.Kind)
		assert.Equal(t, r.Assessment.Commit, r.Battle.Order.Soldiers)
	}
	if !reports[1].Skipped {
		assert.NotNil(t, reports[1].Report.Field, "the second march fights in the field")
	}

	for _, id := range []string{"kofu", "suwa", "takato", "hara"} {
		assert.False(t, m.Engaged(id), id)
	}
	assert.Equal(t, 4, m.Count())
}

// border is two neighbouring strongholds with the given soldiers and one
// scripted march from home to target.
func border(home, target, wall int) *world.Scenario {
	lord := func(id string) *officer.Officer {
		return officer.New(id, id, officer.Stats{Leadership: 70, Strength: 50, Intelligence: 50, Politics: 50, Charm: 50},
			officer.IdeologyNone, officer.Lord{})
	}
	return &world.Scenario{
		ID: "border",
		Strongholds: []*world.Stronghold{
			{ID: "home", Owner: "red", Soldiers: home, Rice: 5000, Wall: 100, MaxWall: 100,
				Training: 60, Morale: 60, Loyalty: 60, Officers: []*officer.Officer{lord("redlord")}, Adjacent: []string{"target"}},
			{ID: "target", Owner: "blue", Soldiers: target, Rice: 1000, Wall: wall, MaxWall: 400,
				Training: 50, Morale: 50, Loyalty: 50, Officers: []*officer.Officer{lord("bluelord")}, Adjacent: []string{"home"}},
		},
		Battles: []world.Battle{{Order: world.Order{SourceID: "home", TargetID: "target", Soldiers: 50}}},
	}
}

func TestPlay_AIDeclinesHopelessMarch(t *testing.T) {
	s := newSim(t, contentConfig())

	m, reports, err := s.Play(context.Background(), border(100, 10000, 400), nil, nil)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	r := reports[0]
	assert.True(t, r.Skipped)
	require.NotNil(t, r.Assessment)
	assert.False(t, r.Assessment.Attack)
	assert.Less(t, r.Assessment.Ratio, r.Assessment.Threshold)
	assert.Zero(t, r.Report.Outcome.Kind, "no battle is fought")

	assert.False(t, m.Engaged("home"))
	assert.False(t, m.Engaged("target"))
	home, _ := m.Stronghold("home")
	target, _ := m.Stronghold("target")
	assert.Equal(t, 100, home.Soldiers)
	assert.Equal(t, 10000, target.Soldiers)
	assert.Equal(t, "blue", target.Owner)
}

func TestPlay_AICommitsItsOwnForce(t *testing.T) {
	s := newSim(t, contentConfig())

	m, reports, err := s.Play(context.Background(), border(10000, 100, 0), nil, nil)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	r := reports[0]
	assert.False(t, r.Skipped)
	require.NotNil(t, r.Assessment)
	assert.True(t, r.Assessment.Attack)
	assert.Equal(t, r.Assessment.Commit, r.Battle.Order.Soldiers, "the assessed force marches, not the scripted 50")
	assert.NotZero(t, r.Report.Outcome.Kind)
	assert.False(t, m.Engaged("home"))
	assert.False(t, m.Engaged("target"))
}

func TestPlay_HumanAttackerIsNotAssessed(t *testing.T) {
	s := newSim(t, contentConfig())
	sc := border(100, 10000, 400)
	sc.Battles[0].Human = "attacker"

	in := make(chan string, 1)
	in <- "withdraw"
	var out bytes.Buffer
	_, reports, err := s.Play(context.Background(), sc, in, &out)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Nil(t, reports[0].Assessment)
	assert.False(t, reports[0].Skipped)
	assert.Equal(t, 50, reports[0].Battle.Order.Soldiers)
	assert.Equal(t, siege.AttackerDefeat, reports[0].Report.Outcome.Kind)
}

func TestPlay_HumanAttacker(t *testing.T) {
	s := newSim(t, contentConfig())
	sc := scenario(t, "river_march.yaml")
	sc.Battles[0].Human = "attacker"
	sc.Battles[0].Field = false

	in := make(chan string, 2)
	in <- "status"
	in <- "withdraw"
	var out bytes.Buffer
	m, reports, err := s.Play(context.Background(), sc, in, &out)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, siege.AttackerDefeat, reports[0].Report.Outcome.Kind)
	assert.Contains(t, out.String(), "Besiegers 3000 soldiers")

	kiyosu, ok := m.Stronghold("kiyosu")
	require.True(t, ok)
	assert.Equal(t, "shiba", kiyosu.Owner)
}

func TestPlay_HumanWithoutInput(t *testing.T) {
	s := newSim(t, config.Default())
	sc := scenario(t, "river_march.yaml")
	sc.Battles[0].Human = "defender"

	m, _, err := s.Play(context.Background(), sc, nil, nil)
	require.Error(t, err)
	assert.False(t, m.Engaged("nagoya"), "the march is called off")
	nagoya, _ := m.Stronghold("nagoya")
	assert.Equal(t, 4000, nagoya.Soldiers)
}

func TestTrials_TalliesEveryRun(t *testing.T) {
	s := newSim(t, contentConfig())
	sc := scenario(t, "mountain_pass.yaml")

	tallies, err := s.Trials(context.Background(), sc, 12)
	require.NoError(t, err)
	require.Len(t, tallies, 2)
	for _, tl := range tallies {
		assert.Equal(t, 12, tl.Trials)
		total := 0
		share := 0.0
		for kind, n := range tl.Kinds {
			total += n
			share += tl.Share(kind)
		}
		assert.Equal(t, 12, total)
		assert.InDelta(t, 1, share, 1e-9)
		assert.LessOrEqual(t, tl.MeanRounds(), float64(config.Default().Siege.RoundCap))
	}
	assert.Equal(t, "kofu", tallies[0].Source)
	assert.Equal(t, "suwa", tallies[0].Target)
	assert.Equal(t, "takato", tallies[1].Target)
}

func TestTrials_SameSeedSameTallies(t *testing.T) {
	sc := scenario(t, "mountain_pass.yaml")
	run := func() []sim.Tally {
		tallies, err := newSim(t, contentConfig()).Trials(context.Background(), sc, 8)
		require.NoError(t, err)
		return tallies
	}
	assert.Equal(t, run(), run())
}

func TestTrials_Errors(t *testing.T) {
	s := newSim(t, config.Default())
	sc := scenario(t, "river_march.yaml")

	_, err := s.Trials(context.Background(), sc, 0)
	assert.Error(t, err)

	_, err = s.Trials(context.Background(), &world.Scenario{ID: "empty"}, 1)
	assert.ErrorIs(t, err, sim.ErrNoBattles)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Trials(ctx, sc, 50)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAssess(t *testing.T) {
	s := newSim(t, contentConfig())
	sc := scenario(t, "mountain_pass.yaml")

	got, err := s.Assess(sc)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "suwa", got[0].Target)
	assert.Equal(t, "stormer", got[0].Archetype)
	assert.Greater(t, got[0].Own, 0.0)
	assert.Greater(t, got[0].Estimate, 0.0)
	assert.Greater(t, got[0].Shrewdness, 0.5, "Shingen and Kansuke are shrewd")

	_, err = s.Assess(&world.Scenario{})
	assert.ErrorIs(t, err, sim.ErrNoBattles)
}
