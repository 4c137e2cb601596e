package combatmath

import (
	"math"

	"github.com/cory-johannsen/castlesiege/internal/game/dice"
)

// CovertResult is the outcome of a sabotage or arson attempt.
type CovertResult struct {
	Success  bool
	Chance   float64
	Soldiers int
	Wall     int
}

// CovertChance is the success probability of a covert operation:
// base + slope*(actor-target)/100, clamped to [0.05, 0.95].
func CovertChance(c CovertParams, actorIntel, targetIntel float64) float64 {
	return clampFloat(c.BaseChance+c.Slope*(actorIntel-targetIntel)/100, 0.05, 0.95)
}

// Sabotage rolls a sabotage attempt. On success the target loses soldiers in
// proportion to its size, scaled up as its loyalty falls.
//
// Postcondition: Soldiers == 0 on failure; 0 <= Soldiers <= targetSoldiers.
func Sabotage(p Params, r *dice.Roller, actorIntel, targetIntel, targetLoyalty float64, targetSoldiers int) CovertResult {
	res := CovertResult{Chance: CovertChance(p.Sabotage, actorIntel, targetIntel)}
	if !r.Chance("sabotage", res.Chance) {
		return res
	}
	res.Success = true
	disloyalty := (150 - clampFloat(targetLoyalty, 0, 100)) / 100
	harm := float64(targetSoldiers)*p.Sabotage.SoldierRate*disloyalty + actorIntel*p.Sabotage.PerIntelligence
	res.Soldiers = min(max(int(math.Round(harm)), p.Sabotage.Minimum), targetSoldiers)
	return res
}

// Arson rolls an arson attempt. Against walls it burns wall integrity;
// otherwise it burns the target's camp and kills soldiers.
//
// Postcondition: on failure both damages are 0; wall damage never exceeds wall.
func Arson(p Params, r *dice.Roller, actorIntel, targetIntel float64, againstWalls bool, wall, targetSoldiers int) CovertResult {
	res := CovertResult{Chance: CovertChance(p.Arson, actorIntel, targetIntel)}
	if !r.Chance("arson", res.Chance) {
		return res
	}
	res.Success = true
	if againstWalls {
		burn := float64(p.Arson.Minimum) + actorIntel*p.Arson.PerIntelligence
		res.Wall = min(int(math.Round(burn)), max(wall, 0))
		return res
	}
	harm := float64(targetSoldiers)*p.Arson.SoldierRate + actorIntel*p.Arson.PerIntelligence/2
	res.Soldiers = min(max(int(math.Round(harm)), p.Arson.Minimum), targetSoldiers)
	return res
}

// Repair converts soldiers into restored wall integrity.
// spent = soldiers*SpendRate; restored = spent*SoldierYield +
// (best + AssistShare*sum(assisting))*PoliticsYield, raised by CastellanBonus
// when a castellan directs the work.
//
// Postcondition: 0 <= spent <= soldiers; restored >= 0.
func Repair(p Params, soldiers int, best float64, assisting []float64, castellan bool) (spent, restored int) {
	if soldiers <= 0 {
		return 0, 0
	}
	spent = min(int(math.Round(float64(soldiers)*p.Repair.SpendRate)), soldiers)
	skill := best
	for _, a := range assisting {
		skill += a * p.Repair.AssistShare
	}
	amount := float64(spent)*p.Repair.SoldierYield + skill*p.Repair.PoliticsYield
	if castellan {
		amount *= 1 + p.Repair.CastellanBonus
	}
	return spent, max(int(math.Round(amount)), 0)
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
