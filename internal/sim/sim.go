// Package sim assembles the engines, AI and doctrines from configuration and
// plays scenarios: interactively, as repeated AI trials, or as pre-battle
// assessments.
package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/cory-johannsen/castlesiege/internal/config"
	"github.com/cory-johannsen/castlesiege/internal/game/ai"
	"github.com/cory-johannsen/castlesiege/internal/game/battle"
	"github.com/cory-johannsen/castlesiege/internal/game/command"
	"github.com/cory-johannsen/castlesiege/internal/game/dice"
	"github.com/cory-johannsen/castlesiege/internal/game/field"
	"github.com/cory-johannsen/castlesiege/internal/game/force"
	"github.com/cory-johannsen/castlesiege/internal/game/siege"
	"github.com/cory-johannsen/castlesiege/internal/game/world"
	"github.com/cory-johannsen/castlesiege/internal/observability"
	"github.com/cory-johannsen/castlesiege/internal/scripting"
)

// globalScripts is the script subdirectory shared by every doctrine.
const globalScripts = "global"

// Simulator owns one set of engines and the AI that plays on them.
type Simulator struct {
	cfg        config.Config
	logger     *zap.Logger
	archetypes map[string]ai.Archetype
	fallback   ai.Archetype
	policy     *ai.Policy
	scripts    *scripting.Manager
	resolver   *command.Resolver
	runner     *battle.Runner
	// batch shares runner's engines without pacing.
	batch      *battle.Runner
	pacer      battle.Pacer
}

// New builds a Simulator from cfg.
//
// Precondition: cfg is valid. A nil logger disables logging.
// Postcondition: the caller must Close the returned Simulator.
func New(cfg config.Config, logger *zap.Logger) (*Simulator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	src := dice.NewCryptoSource()
	if cfg.Battle.Seed != 0 {
		src = dice.NewSeededSource(cfg.Battle.Seed)
	}
	roller := dice.NewRoller(src, logger)

	s := &Simulator{cfg: cfg, logger: logger, pacer: battle.NoPacing}
	if err := s.loadArchetypes(); err != nil {
		return nil, err
	}
	doctrines, err := s.loadDoctrines(roller)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.policy = ai.NewPolicy(cfg.AI.Params, cfg.Siege.Combat, roller, doctrines, logger)
	s.resolver = command.NewResolver(command.DefaultRegistry(), logger)
	if cfg.Battle.Pace > 0 {
		s.pacer = battle.NewTimedPacer(cfg.Battle.Pace)
	}
	se := siege.NewEngine(cfg.Siege, src, logger)
	fe := field.NewEngine(cfg.Field, cfg.Siege.Combat, src, logger)
	s.runner = battle.NewRunner(se, fe, s.pacer, logger)
	s.batch = battle.NewRunner(se, fe, battle.NoPacing, logger)
	return s, nil
}

func (s *Simulator) loadArchetypes() error {
	list := ai.DefaultArchetypes()
	if s.cfg.AI.ArchetypeFile != "" {
		loaded, err := ai.LoadArchetypes(s.cfg.AI.ArchetypeFile)
		if err != nil {
			return err
		}
		if len(loaded) == 0 {
			return fmt.Errorf("sim: %s defines no archetypes", s.cfg.AI.ArchetypeFile)
		}
		list = loaded
	}
	s.archetypes = make(map[string]ai.Archetype, len(list))
	for _, a := range list {
		s.archetypes[a.ID] = a
	}
	s.fallback = list[0]
	if a, ok := s.archetypes["balanced"]; ok {
		s.fallback = a
	}
	return nil
}

// loadDoctrines reads the HTN domains and binds each to its Lua scripts.
// A doctrine without a script directory still plans with built-in predicates.
func (s *Simulator) loadDoctrines(roller *dice.Roller) (*ai.Registry, error) {
	sc := s.cfg.Scripting
	if sc.DoctrineDir == "" {
		return nil, nil
	}
	domains, err := ai.LoadDoctrines(sc.DoctrineDir)
	if err != nil {
		return nil, err
	}
	s.scripts = scripting.NewManager(roller, s.logger)
	if sc.ScriptDir != "" {
		if dir := filepath.Join(sc.ScriptDir, globalScripts); isDir(dir) {
			if err := s.scripts.LoadGlobal(dir, sc.InstructionLimit); err != nil {
				return nil, err
			}
		}
	}

	reg := ai.NewRegistry()
	for _, d := range domains {
		if sc.ScriptDir != "" {
			if dir := filepath.Join(sc.ScriptDir, d.ID); isDir(dir) {
				if err := s.scripts.LoadDoctrine(d.ID, dir, sc.InstructionLimit); err != nil {
					return nil, err
				}
			}
		}
		if err := reg.Register(d, s.scripts, s.cfg.AI.Params); err != nil {
			return nil, err
		}
	}
	s.logger.Info("doctrines loaded", zap.Int("count", len(domains)))
	return reg, nil
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// Close releases the Lua VMs and stops pacing.
func (s *Simulator) Close() {
	if s.scripts != nil {
		s.scripts.Close()
	}
	if p, ok := s.pacer.(*battle.TimedPacer); ok {
		p.Stop()
	}
}

// Archetype returns the archetype with id, or the fallback when id is empty
// or unknown.
func (s *Simulator) Archetype(id string) ai.Archetype {
	if a, ok := s.archetypes[id]; ok {
		return a
	}
	if id != "" {
		s.logger.Warn("unknown archetype, using fallback",
			zap.String("archetype", id),
			zap.String("fallback", s.fallback.ID),
		)
	}
	return s.fallback
}

// Policy returns the AI policy.
func (s *Simulator) Policy() *ai.Policy { return s.policy }

func (s *Simulator) aiControllers(b world.Battle) [2]battle.Controller {
	return [2]battle.Controller{
		force.SideAttacker: battle.AIController{Policy: s.policy, Archetype: s.Archetype(b.AttackerArchetype)},
		force.SideDefender: battle.AIController{Policy: s.policy, Archetype: s.Archetype(b.DefenderArchetype)},
	}
}

func (s *Simulator) options(b world.Battle) battle.Options {
	opts := battle.Options{Field: b.Field}
	if s.cfg.Logging.EventLog {
		opts.Subscribers = append(opts.Subscribers, observability.EventLog(s.logger))
	}
	return opts
}

// BattleReport is the result of one scenario battle.
type BattleReport struct {
	// Battle is the march as fought; an AI attacker's Order carries the
	// soldiers it chose to commit.
	Battle world.Battle
	// Assessment is the AI attacker's verdict, nil under human command.
	Assessment *ai.Assessment
	// Skipped is set when the AI attacker declined to march.
	Skipped bool
	Report  battle.Report
}

// Play fights the scenario's battles in order on one map, merging each
// outcome before the next march. An AI attacker first assesses the march
// from the current map: it stays home when the odds fall short and otherwise
// sends the soldiers it judges sufficient in place of the scripted number.
// The side named by a battle's Human field reads orders from in and writes
// prompts to out; in may be nil when no battle has a human side.
//
// Postcondition: returns the final map with every report, or the reports so
// far and the first error. A battle that resolved before failing is merged
// and reported.
func (s *Simulator) Play(ctx context.Context, sc *world.Scenario, in <-chan string, out io.Writer) (*world.Manager, []BattleReport, error) {
	m, err := world.NewManager(sc.Strongholds, s.logger)
	if err != nil {
		return nil, nil, err
	}
	var reports []BattleReport
	for i, b := range sc.Battles {
		if b.Human != "" && (in == nil || out == nil) {
			return m, reports, fmt.Errorf("battle %d: human %s needs an input", i, b.Human)
		}
		br := BattleReport{Battle: b}
		if b.Human != "attacker" {
			a, err := s.assess(m, b)
			if err != nil {
				return m, reports, fmt.Errorf("battle %d: %w", i, err)
			}
			br.Assessment = &a
			if !a.Attack {
				s.logger.Info("march called off",
					zap.String("source", b.Order.SourceID),
					zap.String("target", b.Order.TargetID),
					zap.Float64("ratio", a.Ratio),
					zap.Float64("threshold", a.Threshold),
				)
				br.Skipped = true
				reports = append(reports, br)
				continue
			}
			br.Battle.Order.Soldiers = a.Commit
		}

		e, err := m.Launch(br.Battle.Order)
		if err != nil {
			return m, reports, fmt.Errorf("battle %d: %w", i, err)
		}
		ctrls := s.aiControllers(b)
		switch b.Human {
		case "attacker":
			ctrls[force.SideAttacker] = battle.NewHumanController(in, out, s.resolver)
		case "defender":
			ctrls[force.SideDefender] = battle.NewHumanController(in, out, s.resolver)
		}
		br.Report, err = s.runner.Fight(ctx, m, e, ctrls, s.options(b))
		if br.Report.Outcome.Kind != 0 {
			reports = append(reports, br)
		}
		if err != nil {
			return m, reports, fmt.Errorf("battle %d: %w", i, err)
		}
	}
	return m, reports, nil
}

// assess is b's attacker's verdict on its march, judged from m as it stands.
func (s *Simulator) assess(m *world.Manager, b world.Battle) (ai.Assessment, error) {
	home, err := m.Garrison(b.Order.SourceID)
	if err != nil {
		return ai.Assessment{}, err
	}
	target, err := m.Garrison(b.Order.TargetID)
	if err != nil {
		return ai.Assessment{}, err
	}
	return s.policy.Assess(home, target, s.Archetype(b.AttackerArchetype)), nil
}

// ErrNoBattles is returned when a scenario has nothing to fight.
var ErrNoBattles = errors.New("scenario has no battles")
