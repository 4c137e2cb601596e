package ai

import (
	"math"

	"github.com/cory-johannsen/castlesiege/internal/game/officer"
)

// Shrewdness maps intelligence onto (0, 1) with logistic((intel-50)/10):
// 50 is a coin flip, 70 is about 0.88, 30 about 0.12.
func Shrewdness(intelligence float64) float64 {
	return 1 / (1 + math.Exp(-(intelligence-50)/10))
}

// DecidingIntelligence is the best intelligence among officers, the one whose
// counsel the force follows. An empty list yields the placeholder's.
func DecidingIntelligence(officers []*officer.Officer) float64 {
	officers = officer.Sanitize(officers)
	best := officers[0].Stats.Intelligence
	for _, o := range officers[1:] {
		best = math.Max(best, o.Stats.Intelligence)
	}
	return best
}
