package observability

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/castlesiege/internal/game/force"
	"github.com/cory-johannsen/castlesiege/internal/game/siege"
)

// EventLog returns a siege subscriber that writes each round's narrative and
// the final outcome to logger.
//
// Precondition: logger must be non-nil.
func EventLog(logger *zap.Logger) siege.Subscriber {
	if logger == nil {
		panic("observability.EventLog: logger must not be nil")
	}
	return func(ev siege.Event) {
		switch e := ev.(type) {
		case siege.RoundResolved:
			r := e.Result
			for _, line := range r.Narrative {
				logger.Info(line,
					zap.String("handle", e.Handle.String()),
					zap.Int("round", r.Round),
					zap.Stringer("actor", r.Actor),
					zap.Stringer("action", r.Action),
				)
			}
		case siege.SessionEnded:
			o := e.Outcome
			logger.Info("siege resolved",
				zap.String("handle", e.Handle.String()),
				zap.Stringer("outcome", o.Kind),
				zap.Int("rounds", o.Rounds),
				zap.Int("attacker_casualties", o.Casualties[force.SideAttacker]),
				zap.Int("defender_casualties", o.Casualties[force.SideDefender]),
				zap.Int("prisoners", len(o.Prisoners)),
			)
		}
	}
}
