package combatmath

import (
	"math"

	"github.com/cory-johannsen/castlesiege/internal/game/dice"
	"github.com/cory-johannsen/castlesiege/internal/game/officer"
)

// Side is the fighting state of one belligerent as seen by the damage formula.
type Side struct {
	Stats    officer.Stats
	Soldiers int
	Morale   float64
	Training float64
	// RangedShare is the fraction of soldiers carrying ranged weapons.
	RangedShare float64
}

// DamageInput is everything Damage needs for a single strike.
type DamageInput struct {
	Striker Side
	Target  Side
	Profile ActionProfile
	// AgainstWalls is true when the strike is made by the besieger against the
	// garrison; only then is wall shielding applied and damage routed to the wall.
	AgainstWalls bool
	Wall         int
	// Fortification is the target's defensive terrain bonus (>= 0).
	Fortification float64
	// Ranged enables the ranged equipment bonus for the striker.
	Ranged bool
}

// DamageResult is the outcome of one strike.
//
// Invariant: Soldiers >= 0, Wall >= 0.
type DamageResult struct {
	Soldiers    int
	Wall        int
	CounterRisk float64
	Variance    float64
}

// Halve returns r with soldier and wall damage halved, rounding down.
func (r DamageResult) Halve() DamageResult {
	r.Soldiers /= 2
	r.Wall /= 2
	return r
}

// Power computes the fighting power of one side for the given strike profile:
// (leadership + secondary stat + soldier term) scaled by morale and training.
//
// Postcondition: Returns > 0 whenever any stat or soldier is positive.
func Power(p Params, s Side, prof ActionProfile) float64 {
	secondary := s.Stats.Strength
	if prof.UsesIntelligence {
		secondary = s.Stats.Intelligence
	}
	base := s.Stats.Leadership*p.LeadershipWeight +
		secondary*p.SecondaryWeight +
		float64(s.Soldiers)*p.SoldierWeight
	bonus := 1 + (s.Morale-50)/p.MoraleScale + (s.Training-50)/p.TrainingScale
	return base * max(bonus, 0.1)
}

// Damage resolves a strike:
//
//	raw = sp * sp/(sp+tp) * multiplier * variance, floored at MinDamage
//
// where sp/tp are striker/target power (target power raised by fortification).
// Against walls, WallShare of raw goes to the wall and the remainder is
// reduced by wall shielding before it reaches the soldiers.
//
// Precondition: r must be non-nil.
// Postcondition: result.Soldiers >= 0 and result.Wall <= in.Wall.
func Damage(p Params, in DamageInput, r *dice.Roller) DamageResult {
	sp := Power(p, in.Striker, in.Profile)
	tp := Power(p, in.Target, in.Profile) * (1 + max(in.Fortification, 0))

	variance := r.Between("damage variance", p.VarianceMin, p.VarianceMax)
	raw := 0.0
	if sp+tp > 0 {
		raw = sp * sp / (sp + tp)
	}
	raw *= in.Profile.Multiplier * variance
	if in.Ranged {
		raw *= 1 + p.RangedBonus*in.Striker.RangedShare
	}
	raw = max(raw, p.MinDamage)

	wallPart := 0.0
	soldierPart := raw
	if in.AgainstWalls && in.Wall > 0 {
		wallPart = raw * in.Profile.WallShare
		soldierPart = raw - wallPart
		wall := float64(in.Wall)
		soldierPart *= 1 - p.ShieldStrength*wall/(wall+p.ShieldConstant)
	}

	return DamageResult{
		Soldiers:    max(int(math.Round(soldierPart)), 0),
		Wall:        min(max(int(math.Round(wallPart)), 0), max(in.Wall, 0)),
		CounterRisk: in.Profile.CounterRisk,
		Variance:    variance,
	}
}

// Retaliation returns the losses a striker suffers for dealing dealt soldier
// damage with the given counter risk.
//
// Postcondition: Returns >= 0.
func Retaliation(p Params, dealt int, counterRisk float64) int {
	if dealt <= 0 || counterRisk <= 0 {
		return 0
	}
	return int(math.Round(float64(dealt) * counterRisk * p.RetaliationRate))
}
