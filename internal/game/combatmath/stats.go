package combatmath

import "github.com/cory-johannsen/castlesiege/internal/game/officer"

// Aggregate is the combined fighting profile of a group of officers.
type Aggregate struct {
	Stats    officer.Stats
	Leader   *officer.Officer
	Cohesion float64
}

// AggregateStats combines officers into a single stat profile.
// The ranking leader (highest leadership, first on ties) contributes fully and
// each escort contributes EscortShare. The sum is scaled by a cohesion
// multiplier: CohesionPenalty if any escort opposes the leader's ideology,
// otherwise CohesionBonus if every escort shares it, otherwise 1.
//
// Postcondition: Leader is non-nil; an empty list aggregates the placeholder.
func AggregateStats(p Params, officers []*officer.Officer) Aggregate {
	officers = officer.Sanitize(officers)

	leaderIdx := 0
	for i, o := range officers {
		if o.Stats.Leadership > officers[leaderIdx].Stats.Leadership {
			leaderIdx = i
		}
	}
	leader := officers[leaderIdx]

	total := leader.Stats
	allShare := true
	anyOpposed := false
	escorts := 0
	for i, o := range officers {
		if i == leaderIdx {
			continue
		}
		escorts++
		total = total.Add(o.Stats.Scale(p.EscortShare))
		if !o.Ideology.Shares(leader.Ideology) {
			allShare = false
		}
		if o.Ideology.Opposes(leader.Ideology) {
			anyOpposed = true
		}
	}

	cohesion := 1.0
	switch {
	case anyOpposed:
		cohesion = p.CohesionPenalty
	case escorts > 0 && allShare:
		cohesion = p.CohesionBonus
	}

	return Aggregate{Stats: total.Scale(cohesion), Leader: leader, Cohesion: cohesion}
}

// CovertIntelligence is the intelligence a group brings to sabotage and arson:
// the best intelligence present, plus a tenth of every strategist's, capped at 100.
func CovertIntelligence(officers []*officer.Officer) float64 {
	best := 0.0
	advice := 0.0
	for _, o := range officer.Sanitize(officers) {
		best = max(best, o.Stats.Intelligence)
		if o.IsStrategist() {
			advice += o.Stats.Intelligence / 10
		}
	}
	return min(best+advice, 100)
}

// BestPolitics returns the highest politics among officers and the politics of
// everyone else, used to scale wall repair.
func BestPolitics(officers []*officer.Officer) (best float64, assisting []float64, castellan bool) {
	officers = officer.Sanitize(officers)
	bestIdx := 0
	for i, o := range officers {
		if o.Stats.Politics > officers[bestIdx].Stats.Politics {
			bestIdx = i
		}
		if o.IsCastellan() {
			castellan = true
		}
	}
	for i, o := range officers {
		if i != bestIdx {
			assisting = append(assisting, o.Stats.Politics)
		}
	}
	return officers[bestIdx].Stats.Politics, assisting, castellan
}
