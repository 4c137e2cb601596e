// Package combatmath holds the stateless calculators shared by the siege
// and field phases: stat aggregation, power, damage, covert operations,
// repair and retreat desirability.
package combatmath

import (
	"errors"
	"fmt"
	"strings"
)

// ActionProfile describes how one kind of strike converts power into damage.
type ActionProfile struct {
	// Multiplier scales raw damage.
	Multiplier float64 `mapstructure:"multiplier"`
	// WallShare is the fraction of damage routed to wall integrity when the
	// strike is made against a garrison's walls.
	WallShare float64 `mapstructure:"wall_share"`
	// CounterRisk scales retaliation suffered by the striker; > 1 for melee.
	CounterRisk float64 `mapstructure:"counter_risk"`
	// UsesIntelligence selects intelligence instead of strength as the secondary stat.
	UsesIntelligence bool `mapstructure:"uses_intelligence"`
}

// CovertParams tunes sabotage and arson.
type CovertParams struct {
	BaseChance float64 `mapstructure:"base_chance"`
	Slope      float64 `mapstructure:"slope"`
	// SoldierRate is the fraction of the target's soldiers harmed on success.
	SoldierRate float64 `mapstructure:"soldier_rate"`
	// PerIntelligence adds damage per point of the actor's intelligence.
	PerIntelligence float64 `mapstructure:"per_intelligence"`
	// Minimum is the floor applied to a successful operation's damage.
	Minimum int `mapstructure:"minimum"`
}

// RepairParams tunes wall repair.
type RepairParams struct {
	SpendRate      float64 `mapstructure:"spend_rate"`
	SoldierYield   float64 `mapstructure:"soldier_yield"`
	PoliticsYield  float64 `mapstructure:"politics_yield"`
	AssistShare    float64 `mapstructure:"assist_share"`
	CastellanBonus float64 `mapstructure:"castellan_bonus"`
}

// Params collects every tunable used by the calculators.
type Params struct {
	EscortShare     float64 `mapstructure:"escort_share"`
	CohesionBonus   float64 `mapstructure:"cohesion_bonus"`
	CohesionPenalty float64 `mapstructure:"cohesion_penalty"`

	LeadershipWeight float64 `mapstructure:"leadership_weight"`
	SecondaryWeight  float64 `mapstructure:"secondary_weight"`
	SoldierWeight    float64 `mapstructure:"soldier_weight"`
	MoraleScale      float64 `mapstructure:"morale_scale"`
	TrainingScale    float64 `mapstructure:"training_scale"`

	VarianceMin     float64 `mapstructure:"variance_min"`
	VarianceMax     float64 `mapstructure:"variance_max"`
	MinDamage       float64 `mapstructure:"min_damage"`
	ShieldStrength  float64 `mapstructure:"shield_strength"`
	ShieldConstant  float64 `mapstructure:"shield_constant"`
	RetaliationRate float64 `mapstructure:"retaliation_rate"`
	RangedBonus     float64 `mapstructure:"ranged_bonus"`

	Charge ActionProfile `mapstructure:"charge"`
	Ranged ActionProfile `mapstructure:"ranged"`
	Siege  ActionProfile `mapstructure:"siege"`
	Sortie ActionProfile `mapstructure:"sortie"`

	Sabotage CovertParams `mapstructure:"sabotage"`
	Arson    CovertParams `mapstructure:"arson"`
	Repair   RepairParams `mapstructure:"repair"`
}

// DefaultParams returns the stock tuning.
func DefaultParams() Params {
	return Params{
		EscortShare:     0.2,
		CohesionBonus:   1.1,
		CohesionPenalty: 0.9,

		LeadershipWeight: 1.0,
		SecondaryWeight:  0.5,
		SoldierWeight:    0.1,
		MoraleScale:      200,
		TrainingScale:    200,

		VarianceMin:     0.9,
		VarianceMax:     1.1,
		MinDamage:       10,
		ShieldStrength:  0.5,
		ShieldConstant:  1000,
		RetaliationRate: 0.2,
		RangedBonus:     0.5,

		Charge: ActionProfile{Multiplier: 1.2, WallShare: 0.2, CounterRisk: 1.5},
		Ranged: ActionProfile{Multiplier: 0.8, WallShare: 0.1, CounterRisk: 0.5},
		Siege:  ActionProfile{Multiplier: 1.0, WallShare: 0.6, CounterRisk: 0.8, UsesIntelligence: true},
		Sortie: ActionProfile{Multiplier: 1.1, WallShare: 0, CounterRisk: 1.4},

		Sabotage: CovertParams{BaseChance: 0.35, Slope: 0.5, SoldierRate: 0.06, Minimum: 20},
		Arson:    CovertParams{BaseChance: 0.3, Slope: 0.5, SoldierRate: 0.04, PerIntelligence: 0.6, Minimum: 20},
		Repair:   RepairParams{SpendRate: 0.05, SoldierYield: 0.3, PoliticsYield: 0.5, AssistShare: 0.2, CastellanBonus: 0.25},
	}
}

// Validate checks all parameter invariants.
//
// Postcondition: Returns nil if valid, or an error describing all violations.
func (p Params) Validate() error {
	var errs []string
	if p.EscortShare < 0 || p.EscortShare > 1 {
		errs = append(errs, fmt.Sprintf("escort_share must be in [0, 1], got %v", p.EscortShare))
	}
	if p.CohesionBonus < 1 {
		errs = append(errs, fmt.Sprintf("cohesion_bonus must be >= 1, got %v", p.CohesionBonus))
	}
	if p.CohesionPenalty <= 0 || p.CohesionPenalty > 1 {
		errs = append(errs, fmt.Sprintf("cohesion_penalty must be in (0, 1], got %v", p.CohesionPenalty))
	}
	if p.MoraleScale <= 0 || p.TrainingScale <= 0 {
		errs = append(errs, "morale_scale and training_scale must be > 0")
	}
	if p.VarianceMin <= 0 || p.VarianceMax < p.VarianceMin {
		errs = append(errs, fmt.Sprintf("variance range [%v, %v] is invalid", p.VarianceMin, p.VarianceMax))
	}
	if p.MinDamage < 0 {
		errs = append(errs, "min_damage must be >= 0")
	}
	if p.ShieldStrength < 0 || p.ShieldStrength >= 1 || p.ShieldConstant <= 0 {
		errs = append(errs, "shield_strength must be in [0, 1) and shield_constant > 0")
	}
	for name, prof := range map[string]ActionProfile{"charge": p.Charge, "ranged": p.Ranged, "siege": p.Siege, "sortie": p.Sortie} {
		if prof.Multiplier <= 0 {
			errs = append(errs, fmt.Sprintf("%s.multiplier must be > 0", name))
		}
		if prof.WallShare < 0 || prof.WallShare > 1 {
			errs = append(errs, fmt.Sprintf("%s.wall_share must be in [0, 1]", name))
		}
		if prof.CounterRisk < 0 {
			errs = append(errs, fmt.Sprintf("%s.counter_risk must be >= 0", name))
		}
	}
	if p.Charge.CounterRisk <= 1 || p.Sortie.CounterRisk <= 1 {
		errs = append(errs, "melee counter_risk (charge, sortie) must be > 1")
	}
	if p.Repair.SpendRate < 0 || p.Repair.SpendRate > 1 {
		errs = append(errs, "repair.spend_rate must be in [0, 1]")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
