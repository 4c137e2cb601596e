package combatmath

// Holding is the summary of a stronghold used to rank fallback destinations.
type Holding struct {
	Soldiers int
	Wall     int
	Gold     int
	Rice     int
	Officers int
}

// officerWeight makes a garrisoned officer worth more than any plausible
// amount of troops or stores, so staffed strongholds are preferred.
const officerWeight = 1000

// RetreatScore ranks a stronghold as a retreat destination:
// soldiers + wall/2 + (gold+rice)/10 + 1000 per officer present.
func RetreatScore(h Holding) float64 {
	return float64(h.Soldiers) +
		float64(h.Wall)/2 +
		float64(h.Gold+h.Rice)/10 +
		float64(h.Officers*officerWeight)
}

// LootLoss is the fraction of a captured stronghold's gold and rice lost to
// looting. It shrinks as the victors' aggregate charm rises.
//
// Postcondition: 0 <= result <= base.
func LootLoss(base, charm float64) float64 {
	return clampFloat(base*100/(100+max(charm, 0)), 0, max(base, 0))
}

// CarryLoss is the fraction of gold and rice a retreating garrison abandons:
// base + ratio*k, clamped to [0.05, 0.9], where ratio is attacker/defender soldiers.
func CarryLoss(base, k float64, attackerSoldiers, defenderSoldiers int) float64 {
	ratio := float64(attackerSoldiers) / float64(max(defenderSoldiers, 1))
	return clampFloat(base+ratio*k, 0.05, 0.9)
}
