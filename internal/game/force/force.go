// Package force defines the army and garrison snapshots that a battle owns
// for its lifetime, plus the prisoners it produces.
package force

import (
	"fmt"

	"github.com/cory-johannsen/castlesiege/internal/game/officer"
)

// Side identifies one of the two belligerents.
type Side int

const (
	SideAttacker Side = iota
	SideDefender
)

// String returns "attacker" or "defender".
func (s Side) String() string {
	switch s {
	case SideAttacker:
		return "attacker"
	case SideDefender:
		return "defender"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == SideAttacker {
		return SideDefender
	}
	return SideAttacker
}

// Equipment counts optional specialist troops within a force's soldiers.
type Equipment struct {
	Cavalry int `yaml:"cavalry"`
	Ranged  int `yaml:"ranged"`
}

// Force is one side's army snapshot.
//
// Invariant (after Clamp): Soldiers, Supply, Gold >= 0; Morale, Training in [0, 100];
// Equipment counts in [0, Soldiers]; len(Officers) >= 1.
type Force struct {
	Side      Side
	SourceID  string
	Soldiers  int
	Supply    int
	Gold      int
	Morale    float64
	Training  float64
	Officers  []*officer.Officer
	Equipment Equipment
}

// Clamp re-establishes every numeric invariant of f and substitutes a
// placeholder commander when no officers are present.
func (f *Force) Clamp() {
	f.Soldiers = max(f.Soldiers, 0)
	f.Supply = max(f.Supply, 0)
	f.Gold = max(f.Gold, 0)
	f.Morale = clampPct(f.Morale)
	f.Training = clampPct(f.Training)
	f.Equipment.Cavalry = min(max(f.Equipment.Cavalry, 0), f.Soldiers)
	f.Equipment.Ranged = min(max(f.Equipment.Ranged, 0), f.Soldiers)
	if len(f.Officers) == 0 {
		f.Officers = officer.Sanitize(nil)
	}
}

// Lose removes up to n soldiers and returns how many were actually removed.
// Specialist equipment shrinks proportionally.
//
// Postcondition: 0 <= result <= n; Soldiers >= 0.
func (f *Force) Lose(n int) int {
	if n <= 0 || f.Soldiers == 0 {
		return 0
	}
	lost := min(n, f.Soldiers)
	before := f.Soldiers
	f.Soldiers -= lost
	f.Equipment.Cavalry = f.Equipment.Cavalry * f.Soldiers / before
	f.Equipment.Ranged = f.Equipment.Ranged * f.Soldiers / before
	return lost
}

// Consume removes up to n supply and returns how much was removed.
func (f *Force) Consume(n int) int {
	if n <= 0 {
		return 0
	}
	used := min(n, f.Supply)
	f.Supply -= used
	return used
}

// Commander returns the officer with the highest leadership, first on ties.
//
// Precondition: f has been clamped (at least one officer).
func (f *Force) Commander() *officer.Officer {
	var best *officer.Officer
	for _, o := range f.Officers {
		if best == nil || o.Stats.Leadership > best.Stats.Leadership {
			best = o
		}
	}
	return best
}

// CavalryShare returns the fraction of soldiers that are cavalry.
func (f *Force) CavalryShare() float64 {
	if f.Soldiers == 0 {
		return 0
	}
	return float64(f.Equipment.Cavalry) / float64(f.Soldiers)
}

// RangedShare returns the fraction of soldiers that carry ranged weapons.
func (f *Force) RangedShare() float64 {
	if f.Soldiers == 0 {
		return 0
	}
	return float64(f.Equipment.Ranged) / float64(f.Soldiers)
}

// Clone returns a deep copy of f. Officer records are copied so that the
// battle never aliases world state.
func (f *Force) Clone() *Force {
	cp := *f
	cp.Officers = make([]*officer.Officer, len(f.Officers))
	for i, o := range f.Officers {
		oc := *o
		cp.Officers[i] = &oc
	}
	return &cp
}

// Eliminated reports whether the force can no longer fight.
func (f *Force) Eliminated() bool { return f.Soldiers <= 0 }

func clampPct(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
