// Package siege implements the assault state machine: an attacking army and a
// walled garrison alternate actions across bounded rounds until the stronghold
// falls, the attack is repulsed, the garrison withdraws or time runs out.
package siege

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cory-johannsen/castlesiege/internal/game/combatmath"
)

// Params tunes a siege. It is passed explicitly to NewEngine.
type Params struct {
	RoundCap         int     `mapstructure:"round_cap"`
	SupplyPerSoldier float64 `mapstructure:"supply_per_soldier"`

	CarryLossBase float64 `mapstructure:"carry_loss_base"`
	CarryLossK    float64 `mapstructure:"carry_loss_k"`

	CaptureChance     float64 `mapstructure:"capture_chance"`
	LordCaptureFactor float64 `mapstructure:"lord_capture_factor"`

	ShortBattleRounds   int     `mapstructure:"short_battle_rounds"`
	ShortBattleRecovery float64 `mapstructure:"short_battle_recovery"`
	Recovery            float64 `mapstructure:"recovery"`
	DefeatRecovery      float64 `mapstructure:"defeat_recovery"`

	LootBase float64 `mapstructure:"loot_base"`

	Combat combatmath.Params `mapstructure:"combat"`
}

// DefaultParams returns the stock siege tuning.
func DefaultParams() Params {
	return Params{
		RoundCap:            30,
		SupplyPerSoldier:    0.01,
		CarryLossBase:       0.2,
		CarryLossK:          0.3,
		CaptureChance:       0.3,
		LordCaptureFactor:   0.5,
		ShortBattleRounds:   5,
		ShortBattleRecovery: 0.5,
		Recovery:            0.2,
		DefeatRecovery:      0.1,
		LootBase:            0.3,
		Combat:              combatmath.DefaultParams(),
	}
}

// Validate checks all parameter invariants, including the embedded combat tuning.
//
// Postcondition: Returns nil if valid, or an error describing all violations.
func (p Params) Validate() error {
	var errs []string
	if p.RoundCap < 1 {
		errs = append(errs, fmt.Sprintf("round_cap must be >= 1, got %d", p.RoundCap))
	}
	if p.SupplyPerSoldier < 0 {
		errs = append(errs, "supply_per_soldier must be >= 0")
	}
	if p.CarryLossBase < 0 || p.CarryLossK < 0 {
		errs = append(errs, "carry_loss_base and carry_loss_k must be >= 0")
	}
	for name, v := range map[string]float64{
		"capture_chance":        p.CaptureChance,
		"lord_capture_factor":   p.LordCaptureFactor,
		"short_battle_recovery": p.ShortBattleRecovery,
		"recovery":              p.Recovery,
		"defeat_recovery":       p.DefeatRecovery,
		"loot_base":             p.LootBase,
	} {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Sprintf("%s must be in [0, 1], got %v", name, v))
		}
	}
	if p.ShortBattleRounds < 0 {
		errs = append(errs, "short_battle_rounds must be >= 0")
	}
	if err := p.Combat.Validate(); err != nil {
		errs = append(errs, "combat: "+err.Error())
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
