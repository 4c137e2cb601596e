// Package field implements the optional hex-grid maneuver phase fought before
// a siege: two units alternate activations, spending action points to move,
// turn and strike until one side breaks or the turn limit sends the battle
// on to the walls.
package field

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cory-johannsen/castlesiege/internal/game/terrain"
)

// Params tunes the tactical field.
type Params struct {
	Radius               int     `mapstructure:"radius"`
	Mobility             int     `mapstructure:"mobility"`
	CavalryMobilityBonus int     `mapstructure:"cavalry_mobility_bonus"`
	ZOCPenalty           int     `mapstructure:"zoc_penalty"`
	FlankMultiplier      float64 `mapstructure:"flank_multiplier"`
	RearMultiplier       float64 `mapstructure:"rear_multiplier"`
	TurnLimit            int     `mapstructure:"turn_limit"`
	SupplyPerSoldier     float64 `mapstructure:"supply_per_soldier"`
	// FacingCostCap bounds the AP charged for any single facing change.
	FacingCostCap int            `mapstructure:"facing_cost_cap"`
	Terrain       terrain.Config `mapstructure:"terrain"`
}

// DefaultParams returns the stock field tuning.
func DefaultParams() Params {
	return Params{
		Radius:               5,
		Mobility:             4,
		CavalryMobilityBonus: 1,
		ZOCPenalty:           1,
		FlankMultiplier:      1.3,
		RearMultiplier:       1.5,
		TurnLimit:            8,
		SupplyPerSoldier:     0.01,
		FacingCostCap:        2,
		Terrain:              terrain.DefaultConfig(),
	}
}

// Validate checks all parameter invariants.
//
// Postcondition: Returns nil if valid, or an error describing all violations.
func (p Params) Validate() error {
	var errs []string
	if p.Radius < 2 {
		errs = append(errs, fmt.Sprintf("radius must be >= 2, got %d", p.Radius))
	}
	if p.Mobility < 1 {
		errs = append(errs, fmt.Sprintf("mobility must be >= 1, got %d", p.Mobility))
	}
	if p.CavalryMobilityBonus < 0 {
		errs = append(errs, "cavalry_mobility_bonus must be >= 0")
	}
	if p.ZOCPenalty < 1 {
		errs = append(errs, fmt.Sprintf("zoc_penalty must be >= 1, got %d", p.ZOCPenalty))
	}
	if p.FlankMultiplier < 1 || p.RearMultiplier < p.FlankMultiplier {
		errs = append(errs, "multipliers must satisfy 1 <= flank <= rear")
	}
	if p.TurnLimit < 1 {
		errs = append(errs, fmt.Sprintf("turn_limit must be >= 1, got %d", p.TurnLimit))
	}
	if p.SupplyPerSoldier < 0 {
		errs = append(errs, "supply_per_soldier must be >= 0")
	}
	if p.FacingCostCap < 1 {
		errs = append(errs, "facing_cost_cap must be >= 1")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
