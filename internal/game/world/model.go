// Package world provides the stronghold map that battles are fought over:
// stronghold records, the engagement lifecycle, and scenario loading.
package world

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/castlesiege/internal/game/combatmath"
	"github.com/cory-johannsen/castlesiege/internal/game/force"
	"github.com/cory-johannsen/castlesiege/internal/game/officer"
)

// Stronghold is one fortified holding on the map.
type Stronghold struct {
	// ID uniquely identifies the stronghold.
	ID string
	// Name is the display name.
	Name string
	// Owner is the faction holding the stronghold.
	Owner         string
	Soldiers      int
	Gold          int
	Rice          int
	Wall          int
	MaxWall       int
	Training      float64
	Morale        float64
	Loyalty       float64
	Fortification float64
	Equipment     force.Equipment
	// Officers are the personnel stationed here, in seniority order.
	Officers []*officer.Officer
	// Adjacent lists the IDs of neighbouring strongholds.
	Adjacent []string
}

// Validate checks the stronghold's own invariants.
//
// Postcondition: Returns nil if valid, or an error describing all violations.
func (s *Stronghold) Validate() error {
	var errs []error
	if s.ID == "" {
		errs = append(errs, errors.New("stronghold ID must not be empty"))
	}
	if s.Soldiers < 0 || s.Gold < 0 || s.Rice < 0 {
		errs = append(errs, fmt.Errorf("stronghold %q: soldiers, gold and rice must be >= 0", s.ID))
	}
	if s.MaxWall < 0 || s.Wall < 0 || s.Wall > s.MaxWall {
		errs = append(errs, fmt.Errorf("stronghold %q: wall %d must be within [0, %d]", s.ID, s.Wall, s.MaxWall))
	}
	pcts := []struct {
		name string
		v    float64
	}{{"training", s.Training}, {"morale", s.Morale}, {"loyalty", s.Loyalty}}
	for _, p := range pcts {
		if p.v < 0 || p.v > 100 {
			errs = append(errs, fmt.Errorf("stronghold %q: %s %.1f must be within [0, 100]", s.ID, p.name, p.v))
		}
	}
	if s.Fortification < 0 {
		errs = append(errs, fmt.Errorf("stronghold %q: fortification must be >= 0", s.ID))
	}
	seen := make(map[string]bool, len(s.Officers))
	for _, o := range s.Officers {
		if o == nil || o.ID == "" {
			errs = append(errs, fmt.Errorf("stronghold %q: officer without ID", s.ID))
			continue
		}
		if seen[o.ID] {
			errs = append(errs, fmt.Errorf("stronghold %q: duplicate officer %q", s.ID, o.ID))
		}
		seen[o.ID] = true
	}
	for _, adj := range s.Adjacent {
		if adj == s.ID {
			errs = append(errs, fmt.Errorf("stronghold %q: adjacent to itself", s.ID))
		}
	}
	return errors.Join(errs...)
}

// Clone returns a deep copy of s.
func (s *Stronghold) Clone() *Stronghold {
	cp := *s
	cp.Officers = make([]*officer.Officer, len(s.Officers))
	for i, o := range s.Officers {
		oc := *o
		cp.Officers[i] = &oc
	}
	cp.Adjacent = append([]string(nil), s.Adjacent...)
	return &cp
}

// Holding summarises s for retreat ranking.
func (s *Stronghold) Holding() combatmath.Holding {
	return combatmath.Holding{
		Soldiers: s.Soldiers,
		Wall:     s.Wall,
		Gold:     s.Gold,
		Rice:     s.Rice,
		Officers: len(s.Officers),
	}
}

// Officer returns the stationed officer with id.
func (s *Stronghold) Officer(id string) (*officer.Officer, bool) {
	for _, o := range s.Officers {
		if o.ID == id {
			return o, true
		}
	}
	return nil, false
}

// IsAdjacent reports whether id neighbours s.
func (s *Stronghold) IsAdjacent(id string) bool {
	for _, adj := range s.Adjacent {
		if adj == id {
			return true
		}
	}
	return false
}

// clamp re-establishes every numeric invariant after a merge.
func (s *Stronghold) clamp() {
	s.Soldiers = max(s.Soldiers, 0)
	s.Gold = max(s.Gold, 0)
	s.Rice = max(s.Rice, 0)
	s.MaxWall = max(s.MaxWall, 0)
	s.Wall = min(max(s.Wall, 0), s.MaxWall)
	s.Equipment.Cavalry = min(max(s.Equipment.Cavalry, 0), s.Soldiers)
	s.Equipment.Ranged = min(max(s.Equipment.Ranged, 0), s.Soldiers)
}

// stationable drops placeholder and nil officers; only real personnel are
// ever written back to the map.
func stationable(in []*officer.Officer) []*officer.Officer {
	var out []*officer.Officer
	for _, o := range in {
		if o == nil || o.IsPlaceholder() {
			continue
		}
		oc := *o
		out = append(out, &oc)
	}
	return out
}
