package ai

import (
	"errors"
	"fmt"
	"strings"
)

// Params tunes every AI decision. It is passed explicitly to NewPolicy.
type Params struct {
	// EstimateNoise is the enemy-strength estimate error of a shrewdness-0 commander.
	EstimateNoise float64 `mapstructure:"estimate_noise"`
	// CommitFraction is the share of a garrison sent by the flat commitment heuristic.
	CommitFraction float64 `mapstructure:"commit_fraction"`
	// SufficientMargin scales the force the exact commitment computes as enough.
	SufficientMargin float64 `mapstructure:"sufficient_margin"`
	// IdeologyAdjust moves the attack threshold down against an opposed
	// ideology and up against a shared one.
	IdeologyAdjust float64 `mapstructure:"ideology_adjust"`

	RetreatDanger     float64 `mapstructure:"retreat_danger"`
	RetreatWall       int     `mapstructure:"retreat_wall"`
	RepairWallRatio   float64 `mapstructure:"repair_wall_ratio"`
	RepairMinSoldiers int     `mapstructure:"repair_min_soldiers"`

	// ShrewdCutoff separates the calculated policy from the weighted-random one.
	ShrewdCutoff   float64 `mapstructure:"shrewd_cutoff"`
	StrongWall     int     `mapstructure:"strong_wall"`
	ChargeRatio    float64 `mapstructure:"charge_ratio"`
	SabotageChance float64 `mapstructure:"sabotage_chance"`
}

// DefaultParams returns the stock AI tuning.
func DefaultParams() Params {
	return Params{
		EstimateNoise:     0.5,
		CommitFraction:    0.6,
		SufficientMargin:  1.2,
		IdeologyAdjust:    0.2,
		RetreatDanger:     0.5,
		RetreatWall:       200,
		RepairWallRatio:   0.4,
		RepairMinSoldiers: 300,
		ShrewdCutoff:      0.5,
		StrongWall:        300,
		ChargeRatio:       1.5,
		SabotageChance:    0.1,
	}
}

// Validate checks all parameter invariants.
//
// Postcondition: Returns nil if valid, or an error describing all violations.
func (p Params) Validate() error {
	var errs []string
	if p.EstimateNoise < 0 || p.EstimateNoise >= 1 {
		errs = append(errs, fmt.Sprintf("estimate_noise must be in [0, 1), got %v", p.EstimateNoise))
	}
	if p.CommitFraction <= 0 || p.CommitFraction > 1 {
		errs = append(errs, fmt.Sprintf("commit_fraction must be in (0, 1], got %v", p.CommitFraction))
	}
	if p.SufficientMargin < 1 {
		errs = append(errs, fmt.Sprintf("sufficient_margin must be >= 1, got %v", p.SufficientMargin))
	}
	if p.IdeologyAdjust < 0 {
		errs = append(errs, "ideology_adjust must be >= 0")
	}
	if p.RetreatDanger < 0 || p.RepairWallRatio < 0 || p.RepairWallRatio > 1 {
		errs = append(errs, "retreat_danger must be >= 0 and repair_wall_ratio in [0, 1]")
	}
	if p.RetreatWall < 0 || p.RepairMinSoldiers < 0 || p.StrongWall < 0 {
		errs = append(errs, "retreat_wall, repair_min_soldiers and strong_wall must be >= 0")
	}
	if p.ShrewdCutoff < 0 || p.ShrewdCutoff > 1 || p.SabotageChance < 0 || p.SabotageChance > 1 {
		errs = append(errs, "shrewd_cutoff and sabotage_chance must be in [0, 1]")
	}
	if p.ChargeRatio <= 0 {
		errs = append(errs, "charge_ratio must be > 0")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
