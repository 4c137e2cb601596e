package ai

import (
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/castlesiege/internal/game/combatmath"
	"github.com/cory-johannsen/castlesiege/internal/game/dice"
	"github.com/cory-johannsen/castlesiege/internal/game/force"
	"github.com/cory-johannsen/castlesiege/internal/game/officer"
	"github.com/cory-johannsen/castlesiege/internal/game/siege"
)

// Policy makes every AI decision. It holds no per-battle state and is safe
// for concurrent use when its roller's source is.
type Policy struct {
	params    Params
	combat    combatmath.Params
	roller    *dice.Roller
	doctrines *Registry
	logger    *zap.Logger
}

// NewPolicy creates a Policy. doctrines may be nil when no doctrine is loaded.
//
// Precondition: roller must be non-nil. A nil logger disables logging.
func NewPolicy(p Params, cm combatmath.Params, roller *dice.Roller, doctrines *Registry, logger *zap.Logger) *Policy {
	if roller == nil {
		panic("ai.NewPolicy: roller must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Policy{params: p, combat: cm, roller: roller, doctrines: doctrines, logger: logger}
}

// Params returns the policy's tuning.
func (p *Policy) Params() Params { return p.params }

// Assessment is the pre-battle verdict on marching from home against target.
type Assessment struct {
	Attack     bool
	Shrewdness float64
	// Own is home's full strength; Estimate the perceived strength of target.
	Own      float64
	Estimate float64
	// Ratio is Own over Estimate; Threshold the value it had to exceed.
	Ratio     float64
	Threshold float64
	// Commit is the number of soldiers to send when Attack is set.
	Commit int
	// Exact reports whether Commit came from the sufficient-force computation
	// rather than the flat fraction.
	Exact bool
}

// Assess decides whether home's commanders attack target and with how many
// soldiers. The enemy estimate carries noise of amplitude
// (1-shrewdness)*estimate_noise; the threshold is the archetype's, moved by
// the ideological relation between the two commanders.
//
// Precondition: home and target are non-nil.
func (p *Policy) Assess(home, target *force.Garrison, arch Archetype) Assessment {
	a := Assessment{Shrewdness: Shrewdness(DecidingIntelligence(home.Officers))}
	a.Own = p.strength(&home.Force, home.Soldiers)
	truth := p.defence(target)
	amp := (1 - a.Shrewdness) * p.params.EstimateNoise
	a.Estimate = truth * (1 + p.roller.Between("estimate noise", -amp, amp))

	a.Threshold = arch.AttackThreshold
	ours, theirs := leader(home.Officers), leader(target.Officers)
	switch {
	case ours.Ideology.Opposes(theirs.Ideology):
		a.Threshold -= p.params.IdeologyAdjust
	case ours.Ideology.Shares(theirs.Ideology):
		a.Threshold += p.params.IdeologyAdjust
	}
	a.Threshold = math.Max(a.Threshold, 0.1)

	if a.Estimate > 0 {
		a.Ratio = a.Own / a.Estimate
	} else {
		a.Ratio = math.Inf(1)
	}
	a.Attack = home.Soldiers > 0 && a.Ratio > a.Threshold
	if a.Attack {
		if p.roller.Chance("exact commitment", a.Shrewdness) {
			a.Exact = true
			a.Commit = p.sufficient(home, a.Estimate*a.Threshold*p.params.SufficientMargin)
		} else {
			a.Commit = int(math.Round(float64(home.Soldiers) * p.params.CommitFraction))
		}
		a.Commit = min(max(a.Commit, 1), home.Soldiers)
	}

	p.logger.Debug("ai assessment",
		zap.String("home", home.StrongholdID),
		zap.String("target", target.StrongholdID),
		zap.Float64("ratio", a.Ratio),
		zap.Float64("threshold", a.Threshold),
		zap.Bool("attack", a.Attack),
		zap.Int("commit", a.Commit),
	)
	return a
}

// leader is the officer commanding a force led by officers.
func leader(officers []*officer.Officer) *officer.Officer {
	f := force.Force{Officers: officer.Sanitize(officers)}
	return f.Commander()
}

// strength is f's siege power fielding soldiers.
func (p *Policy) strength(f *force.Force, soldiers int) float64 {
	return combatmath.Power(p.combat, combatmath.Side{
		Stats:    combatmath.AggregateStats(p.combat, f.Officers).Stats,
		Soldiers: soldiers,
		Morale:   f.Morale,
		Training: f.Training,
	}, p.combat.Siege)
}

// defence is g's strength raised by its fortification and walls.
func (p *Policy) defence(g *force.Garrison) float64 {
	wall := float64(g.Wall)
	return p.strength(&g.Force, g.Soldiers) * (1 + g.Fortification) * (1 + wall/(wall+p.combat.ShieldConstant))
}

// sufficient is the fewest soldiers from home whose strength reaches need.
// Power is affine in soldiers, so two probes give the answer.
func (p *Policy) sufficient(home *force.Garrison, need float64) int {
	base := p.strength(&home.Force, 0)
	slope := p.strength(&home.Force, 1) - base
	if slope <= 0 {
		return home.Soldiers
	}
	return int(math.Ceil((need - base) / slope))
}

// SiegeAction chooses side's action for its turn in the session shown by v.
//
// A threatened defender retreats and a defender with failing walls repairs
// before anything else is considered; then the archetype's doctrine is
// consulted; then a shrewd commander calculates and the rest follow weighted
// chance.
//
// Postcondition: the returned action is allowed for side.
func (p *Policy) SiegeAction(side force.Side, v siege.View, arch Archetype) siege.Action {
	sit := SiegeSituation(side, v)

	if side == force.SideDefender {
		if sit.Danger() < p.params.RetreatDanger && sit.Wall < p.params.RetreatWall {
			if dest, ok := v.Garrison.BestRetreat(); ok {
				return siege.Action{Type: siege.ActionRetreat, Destination: dest.StrongholdID}
			}
		}
		if sit.MaxWall > 0 && sit.WallRatio() < p.params.RepairWallRatio && sit.OwnSoldiers >= p.params.RepairMinSoldiers {
			return siege.Action{Type: siege.ActionRepair}
		}
	}

	if a, ok := p.fromDoctrine(side, sit, v, arch); ok {
		return a
	}
	if sit.Shrewdness >= p.params.ShrewdCutoff {
		return siege.Action{Type: p.calculated(side, sit)}
	}
	return siege.Action{Type: p.weighted(side, arch)}
}

// fromDoctrine returns the first planned action side may take. A defender
// retreat is only taken towards an existing option.
func (p *Policy) fromDoctrine(side force.Side, sit Situation, v siege.View, arch Archetype) (siege.Action, bool) {
	if arch.Doctrine == "" {
		return siege.Action{}, false
	}
	planner, ok := p.doctrines.PlannerFor(arch.Doctrine)
	if !ok {
		p.logger.Warn("ai: doctrine not registered", zap.String("doctrine", arch.Doctrine))
		return siege.Action{}, false
	}
	for _, step := range planner.Plan(sit) {
		t, err := siege.ParseAction(step.Action)
		usable := err == nil && t.AllowedFor(side)
		if usable && t == siege.ActionRetreat && side == force.SideDefender {
			if step.Destination != "" {
				_, usable = v.Garrison.RetreatTo(step.Destination)
			} else {
				usable = sit.CanRetreat
			}
		}
		if !usable {
			p.logger.Debug("ai: doctrine step skipped",
				zap.String("doctrine", arch.Doctrine),
				zap.String("action", step.Action),
			)
			continue
		}
		return siege.Action{Type: t, Destination: step.Destination}, true
	}
	return siege.Action{}, false
}

// calculated is the shrewd policy: siege engines against strong walls, a
// charge when the numbers favour it, occasional sabotage.
func (p *Policy) calculated(side force.Side, sit Situation) siege.ActionType {
	if p.roller.Chance("ai sabotage", p.params.SabotageChance) {
		return siege.ActionSabotage
	}
	if side == force.SideAttacker {
		switch {
		case sit.Danger() < p.params.RetreatDanger:
			return siege.ActionRetreat
		case sit.Wall >= p.params.StrongWall:
			return siege.ActionSiege
		case sit.Danger() >= p.params.ChargeRatio:
			return siege.ActionCharge
		default:
			return siege.ActionRanged
		}
	}
	switch {
	case sit.Danger() >= p.params.ChargeRatio:
		return siege.ActionSortie
	case sit.Danger() < 1 && !sit.Fortified:
		return siege.ActionHold
	default:
		return siege.ActionRanged
	}
}

// weighted is the flat random policy over the archetype's weights. Retreat is
// never chosen by chance.
func (p *Policy) weighted(side force.Side, arch Archetype) siege.ActionType {
	var options []siege.ActionType
	var weights []float64
	total := 0.0
	for _, a := range siege.ActionsFor(side) {
		w := arch.Weights[a.String()]
		if a == siege.ActionRetreat || w <= 0 {
			continue
		}
		options = append(options, a)
		weights = append(weights, w)
		total += w
	}
	if total == 0 {
		return siege.ActionSkip
	}
	roll := p.roller.Float("ai weighted action") * total
	for i, w := range weights {
		if roll < w {
			return options[i]
		}
		roll -= w
	}
	return options[len(options)-1]
}
