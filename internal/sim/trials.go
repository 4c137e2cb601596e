package sim

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/castlesiege/internal/game/ai"
	"github.com/cory-johannsen/castlesiege/internal/game/battle"
	"github.com/cory-johannsen/castlesiege/internal/game/force"
	"github.com/cory-johannsen/castlesiege/internal/game/siege"
	"github.com/cory-johannsen/castlesiege/internal/game/world"
)

// Tally aggregates repeated trials of one battle.
type Tally struct {
	Source, Target string
	Trials         int
	Kinds          map[siege.OutcomeKind]int
	// FieldDecided counts trials settled by the maneuver battle alone.
	FieldDecided int
	Rounds       int
	Casualties   [2]int
	Prisoners    int
}

// Share returns the fraction of trials that ended in kind.
func (t Tally) Share(kind siege.OutcomeKind) float64 {
	if t.Trials == 0 {
		return 0
	}
	return float64(t.Kinds[kind]) / float64(t.Trials)
}

// MeanRounds returns the average number of siege rounds fought.
func (t Tally) MeanRounds() float64 {
	if t.Trials == 0 {
		return 0
	}
	return float64(t.Rounds) / float64(t.Trials)
}

func (t *Tally) add(rep battle.Report) {
	t.Trials++
	t.Kinds[rep.Outcome.Kind]++
	if rep.Field != nil && rep.Field.Decisive() {
		t.FieldDecided++
	}
	t.Rounds += rep.Outcome.Rounds
	t.Casualties[force.SideAttacker] += rep.Outcome.Casualties[force.SideAttacker]
	t.Casualties[force.SideDefender] += rep.Outcome.Casualties[force.SideDefender]
	t.Prisoners += len(rep.Outcome.Prisoners)
}

// Trials fights each of the scenario's battles n times, AI against AI, from
// the scenario's starting map, with the scripted force marching whatever the
// AI would assess. Battles do not affect each other and the map is never
// changed. Trials of one battle run on up to GOMAXPROCS workers, or on one
// when rolls are seeded so that the same seed tallies the same results.
//
// Precondition: n >= 1.
func (s *Simulator) Trials(ctx context.Context, sc *world.Scenario, n int) ([]Tally, error) {
	if len(sc.Battles) == 0 {
		return nil, ErrNoBattles
	}
	if n < 1 {
		return nil, fmt.Errorf("sim: trials must be >= 1, got %d", n)
	}
	m, err := world.NewManager(sc.Strongholds, s.logger)
	if err != nil {
		return nil, err
	}

	tallies := make([]Tally, 0, len(sc.Battles))
	for i, b := range sc.Battles {
		e, err := m.Launch(b.Order)
		if err != nil {
			return tallies, fmt.Errorf("battle %d: %w", i, err)
		}
		t, err := s.trialsOf(ctx, e, b, n)
		if abortErr := m.Abort(e.ID); abortErr != nil {
			err = errors.Join(err, abortErr)
		}
		if err != nil {
			return tallies, fmt.Errorf("battle %d: %w", i, err)
		}
		tallies = append(tallies, t)
		s.logger.Info("trials complete",
			zap.String("source", t.Source),
			zap.String("target", t.Target),
			zap.Int("trials", t.Trials),
			zap.Float64("victory_share", t.Share(siege.AttackerVictory)),
		)
	}
	return tallies, nil
}

func (s *Simulator) trialsOf(ctx context.Context, e *world.Engagement, b world.Battle, n int) (Tally, error) {
	t := Tally{Source: e.SourceID, Target: e.TargetID, Kinds: make(map[siege.OutcomeKind]int)}
	ctrls := s.aiControllers(b)
	opts := battle.Options{Field: b.Field}

	jobs := make(chan struct{})
	var (
		mu       sync.Mutex
		firstErr error
		wg       sync.WaitGroup
	)
	workers := min(n, runtime.GOMAXPROCS(0))
	if s.cfg.Battle.Seed != 0 {
		workers = 1
	}
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				rep, err := s.batch.Run(ctx, e.Attacker.Clone(), e.Garrison.Clone(), ctrls, opts)
				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
				} else {
					t.add(rep)
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for range n {
		select {
		case jobs <- struct{}{}:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return t, firstErr
	}
	if err := ctx.Err(); err != nil {
		return t, err
	}
	return t, nil
}

// Assessment is an AI commander's verdict on one scenario battle.
type Assessment struct {
	Source, Target string
	Archetype      string
	ai.Assessment
}

// Assess asks the attacker's archetype whether each battle's march is worth
// making, judged from the scenario's starting map.
func (s *Simulator) Assess(sc *world.Scenario) ([]Assessment, error) {
	if len(sc.Battles) == 0 {
		return nil, ErrNoBattles
	}
	m, err := world.NewManager(sc.Strongholds, s.logger)
	if err != nil {
		return nil, err
	}
	out := make([]Assessment, 0, len(sc.Battles))
	for i, b := range sc.Battles {
		a, err := s.assess(m, b)
		if err != nil {
			return out, fmt.Errorf("battle %d: %w", i, err)
		}
		out = append(out, Assessment{
			Source:     b.Order.SourceID,
			Target:     b.Order.TargetID,
			Archetype:  s.Archetype(b.AttackerArchetype).ID,
			Assessment: a,
		})
	}
	return out, nil
}
