package world

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/castlesiege/internal/game/combatmath"
	"github.com/cory-johannsen/castlesiege/internal/game/force"
	"github.com/cory-johannsen/castlesiege/internal/game/officer"
	"github.com/cory-johannsen/castlesiege/internal/game/siege"
)

// Engagement lifecycle errors. All are returned before the map is mutated.
var (
	ErrUnknownStronghold = errors.New("unknown stronghold")
	ErrUnknownEngagement = errors.New("unknown engagement")
	ErrUnknownPrisoner   = errors.New("unknown prisoner")
	ErrEngaged           = errors.New("stronghold is engaged in battle")
	ErrNotAdjacent       = errors.New("strongholds are not adjacent")
	ErrSameOwner         = errors.New("strongholds share an owner")
	ErrBadOrder          = errors.New("invalid march order")
)

// Order is a request to march from one stronghold against another.
type Order struct {
	SourceID string
	TargetID string
	Soldiers int
	// Officers names the marching officers. Empty sends the officer with the
	// highest leadership.
	Officers []string
}

// Engagement is a battle in progress between two strongholds. Attacker and
// Garrison are snapshots owned by the battle; the map is untouched by the
// fighting until the outcome is applied.
type Engagement struct {
	ID       uuid.UUID
	SourceID string
	TargetID string
	Attacker *force.Force
	Garrison *force.Garrison
}

// Captive is a prisoner held by a faction awaiting disposition.
type Captive struct {
	Prisoner force.Prisoner
	// Captor is the faction holding the prisoner; FormerOwner the faction the
	// officer served.
	Captor      string
	FormerOwner string
	// HeldAt is the stronghold where the prisoner is kept.
	HeldAt string
}

// Manager provides thread-safe access to the stronghold map.
type Manager struct {
	mu          sync.RWMutex
	strongholds map[string]*Stronghold
	engaged     map[string]uuid.UUID
	engagements map[uuid.UUID]*Engagement
	captives    []*Captive
	logger      *zap.Logger
}

// NewManager creates a Manager over the given strongholds.
//
// Precondition: every stronghold must be valid; a nil logger disables logging.
// Postcondition: Returns a Manager, or an error on duplicate IDs or adjacency
// that references an unknown stronghold.
func NewManager(strongholds []*Stronghold, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		strongholds: make(map[string]*Stronghold, len(strongholds)),
		engaged:     make(map[string]uuid.UUID),
		engagements: make(map[uuid.UUID]*Engagement),
		logger:      logger,
	}
	for _, s := range strongholds {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, exists := m.strongholds[s.ID]; exists {
			return nil, fmt.Errorf("duplicate stronghold ID: %q", s.ID)
		}
		m.strongholds[s.ID] = s.Clone()
	}
	if err := m.validateAdjacency(); err != nil {
		return nil, err
	}
	return m, nil
}

// validateAdjacency checks that every adjacency resolves to a known stronghold.
func (m *Manager) validateAdjacency() error {
	for _, s := range m.sorted() {
		for _, adj := range s.Adjacent {
			if _, ok := m.strongholds[adj]; !ok {
				return fmt.Errorf("stronghold %q: adjacent to unknown stronghold %q", s.ID, adj)
			}
		}
	}
	return nil
}

func (m *Manager) sorted() []*Stronghold {
	out := make([]*Stronghold, 0, len(m.strongholds))
	for _, s := range m.strongholds {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Stronghold returns a copy of the stronghold with the given ID.
//
// Postcondition: Returns (stronghold, true) if found, or (nil, false) otherwise.
func (m *Manager) Stronghold(id string) (*Stronghold, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.strongholds[id]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// Strongholds returns copies of every stronghold ordered by ID.
//
// Postcondition: Returns a non-nil slice; may be empty.
func (m *Manager) Strongholds() []*Stronghold {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Stronghold, 0, len(m.strongholds))
	for _, s := range m.sorted() {
		out = append(out, s.Clone())
	}
	return out
}

// Owned returns copies of owner's strongholds ordered by ID.
func (m *Manager) Owned(owner string) []*Stronghold {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Stronghold
	for _, s := range m.sorted() {
		if s.Owner == owner {
			out = append(out, s.Clone())
		}
	}
	return out
}

// Count returns the number of strongholds.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.strongholds)
}

// Engaged reports whether the stronghold is part of a battle in progress.
func (m *Manager) Engaged(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.engaged[id]
	return ok
}

// Garrison returns a snapshot of the stronghold as a defending garrison, with
// its retreat options ranked by combatmath.RetreatScore.
func (m *Manager) Garrison(id string) (*force.Garrison, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.strongholds[id]
	if !ok {
		return nil, fmt.Errorf("%q: %w", id, ErrUnknownStronghold)
	}
	return m.garrisonOf(s), nil
}

func (m *Manager) garrisonOf(s *Stronghold) *force.Garrison {
	g := &force.Garrison{
		Force: force.Force{
			Side:      force.SideDefender,
			SourceID:  s.ID,
			Soldiers:  s.Soldiers,
			Supply:    s.Rice,
			Gold:      s.Gold,
			Morale:    s.Morale,
			Training:  s.Training,
			Officers:  s.Clone().Officers,
			Equipment: s.Equipment,
		},
		StrongholdID:  s.ID,
		Name:          s.Name,
		Wall:          s.Wall,
		MaxWall:       s.MaxWall,
		Fortification: s.Fortification,
		Loyalty:       s.Loyalty,
	}
	for _, id := range s.Adjacent {
		adj := m.strongholds[id]
		if adj.Owner != s.Owner {
			continue
		}
		if _, busy := m.engaged[id]; busy {
			continue
		}
		g.Retreats = append(g.Retreats, force.RetreatOption{
			StrongholdID: adj.ID,
			Name:         adj.Name,
			Score:        combatmath.RetreatScore(adj.Holding()),
		})
	}
	return g
}

// Launch marches an army out of o.SourceID against o.TargetID. The marching
// soldiers, a proportional share of rice and specialists, and the named
// officers leave the source; both strongholds are engaged until ApplyOutcome
// or Abort.
//
// Postcondition: on error the map is unchanged.
func (m *Manager) Launch(o Order) (*Engagement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	src, ok := m.strongholds[o.SourceID]
	if !ok {
		return nil, fmt.Errorf("source %q: %w", o.SourceID, ErrUnknownStronghold)
	}
	dst, ok := m.strongholds[o.TargetID]
	if !ok {
		return nil, fmt.Errorf("target %q: %w", o.TargetID, ErrUnknownStronghold)
	}
	for _, id := range []string{src.ID, dst.ID} {
		if _, busy := m.engaged[id]; busy {
			return nil, fmt.Errorf("%q: %w", id, ErrEngaged)
		}
	}
	if !src.IsAdjacent(dst.ID) {
		return nil, fmt.Errorf("%q to %q: %w", src.ID, dst.ID, ErrNotAdjacent)
	}
	if src.Owner == dst.Owner {
		return nil, fmt.Errorf("%q and %q: %w", src.ID, dst.ID, ErrSameOwner)
	}
	if o.Soldiers < 1 || o.Soldiers > src.Soldiers {
		return nil, fmt.Errorf("%d of %d soldiers: %w", o.Soldiers, src.Soldiers, ErrBadOrder)
	}
	marching, err := pickOfficers(src, o.Officers)
	if err != nil {
		return nil, err
	}

	share := float64(o.Soldiers) / float64(src.Soldiers)
	rice := int(math.Round(float64(src.Rice) * share))
	equip := force.Equipment{
		Cavalry: int(float64(src.Equipment.Cavalry) * share),
		Ranged:  int(float64(src.Equipment.Ranged) * share),
	}
	e := &Engagement{
		ID:       uuid.New(),
		SourceID: src.ID,
		TargetID: dst.ID,
		Attacker: &force.Force{
			Side:      force.SideAttacker,
			SourceID:  src.ID,
			Soldiers:  o.Soldiers,
			Supply:    rice,
			Morale:    src.Morale,
			Training:  src.Training,
			Officers:  marching,
			Equipment: equip,
		},
	}

	src.Soldiers -= o.Soldiers
	src.Rice -= rice
	src.Equipment.Cavalry -= equip.Cavalry
	src.Equipment.Ranged -= equip.Ranged
	src.Officers = without(src.Officers, marching)

	m.engaged[src.ID] = e.ID
	m.engaged[dst.ID] = e.ID
	e.Garrison = m.garrisonOf(dst)
	m.engagements[e.ID] = e

	m.logger.Info("army launched",
		zap.String("engagement", e.ID.String()),
		zap.String("source", src.ID),
		zap.String("target", dst.ID),
		zap.Int("soldiers", o.Soldiers),
		zap.Int("rice", rice),
		zap.Int("officers", len(marching)),
	)
	return e, nil
}

// pickOfficers returns copies of the named officers of s, or of its highest
// leadership officer when ids is empty.
func pickOfficers(s *Stronghold, ids []string) ([]*officer.Officer, error) {
	if len(ids) == 0 {
		var best *officer.Officer
		for _, o := range s.Officers {
			if best == nil || o.Stats.Leadership > best.Stats.Leadership {
				best = o
			}
		}
		if best == nil {
			return nil, nil
		}
		cp := *best
		return []*officer.Officer{&cp}, nil
	}
	out := make([]*officer.Officer, 0, len(ids))
	for _, id := range ids {
		o, ok := s.Officer(id)
		if !ok {
			return nil, fmt.Errorf("officer %q is not stationed at %q: %w", id, s.ID, ErrBadOrder)
		}
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

func without(officers, gone []*officer.Officer) []*officer.Officer {
	out := make([]*officer.Officer, 0, len(officers))
	for _, o := range officers {
		keep := true
		for _, g := range gone {
			if g.ID == o.ID {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, o)
		}
	}
	return out
}

// Engagement returns the battle in progress with the given ID.
func (m *Manager) Engagement(id uuid.UUID) (*Engagement, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.engagements[id]
	return e, ok
}

// ApplyOutcome merges a resolved siege into the map in one step: the besieged
// stronghold takes its final holding, ownership transfers, reinforcements are
// added to their strongholds and prisoners are held by the captor. Placeholder
// officers are never written back.
//
// Postcondition: on error the map is unchanged; on success both strongholds
// are released.
func (m *Manager) ApplyOutcome(id uuid.UUID, o siege.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.engagements[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrUnknownEngagement)
	}
	if o.Besieged.StrongholdID != e.TargetID {
		return fmt.Errorf("outcome besieges %q, engagement targets %q: %w",
			o.Besieged.StrongholdID, e.TargetID, ErrUnknownStronghold)
	}
	for _, r := range o.Reinforcements {
		if _, ok := m.strongholds[r.StrongholdID]; !ok {
			return fmt.Errorf("reinforcement to %q: %w", r.StrongholdID, ErrUnknownStronghold)
		}
	}
	if o.Transfer != nil {
		if _, ok := m.strongholds[o.Transfer.FromSourceID]; !ok {
			return fmt.Errorf("transfer from %q: %w", o.Transfer.FromSourceID, ErrUnknownStronghold)
		}
	}

	target := m.strongholds[e.TargetID]
	formerOwner := target.Owner
	target.Soldiers = o.Besieged.Soldiers
	target.Gold = o.Besieged.Gold
	target.Rice = o.Besieged.Rice
	target.Wall = o.Besieged.Wall
	target.Equipment = o.Besieged.Equipment
	target.Officers = stationable(o.Besieged.Officers)
	if o.Transfer != nil {
		target.Owner = m.strongholds[o.Transfer.FromSourceID].Owner
	}
	target.clamp()

	for _, r := range o.Reinforcements {
		s := m.strongholds[r.StrongholdID]
		s.Soldiers += r.Soldiers
		s.Gold += r.Gold
		s.Rice += r.Rice
		s.Equipment.Cavalry += r.Equipment.Cavalry
		s.Equipment.Ranged += r.Equipment.Ranged
		s.Officers = append(s.Officers, stationable(r.Officers)...)
		s.clamp()
	}

	for _, p := range o.Prisoners {
		if p.Officer == nil || p.Officer.IsPlaceholder() {
			continue
		}
		oc := *p.Officer
		m.captives = append(m.captives, &Captive{
			Prisoner:    force.Prisoner{Officer: &oc, CapturedBy: p.CapturedBy},
			Captor:      target.Owner,
			FormerOwner: formerOwner,
			HeldAt:      target.ID,
		})
	}

	delete(m.engaged, e.SourceID)
	delete(m.engaged, e.TargetID)
	delete(m.engagements, id)

	m.logger.Info("outcome applied",
		zap.String("engagement", id.String()),
		zap.Stringer("outcome", o.Kind),
		zap.String("target", target.ID),
		zap.String("owner", target.Owner),
		zap.Int("prisoners", len(o.Prisoners)),
	)
	return nil
}

// Abort cancels an engagement that never produced an outcome; the army
// returns to its source intact.
func (m *Manager) Abort(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.engagements[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrUnknownEngagement)
	}
	src := m.strongholds[e.SourceID]
	src.Soldiers += e.Attacker.Soldiers
	src.Rice += e.Attacker.Supply
	src.Equipment.Cavalry += e.Attacker.Equipment.Cavalry
	src.Equipment.Ranged += e.Attacker.Equipment.Ranged
	src.Officers = append(src.Officers, stationable(e.Attacker.Officers)...)

	delete(m.engaged, e.SourceID)
	delete(m.engaged, e.TargetID)
	delete(m.engagements, id)
	m.logger.Info("engagement aborted", zap.String("engagement", id.String()))
	return nil
}

// Captives returns copies of the prisoners awaiting disposition.
func (m *Manager) Captives() []Captive {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Captive, len(m.captives))
	for i, c := range m.captives {
		out[i] = *c
		oc := *c.Prisoner.Officer
		out[i].Prisoner.Officer = &oc
	}
	return out
}

// Dispose decides the fate of the captive officer. A hired officer joins the
// stronghold holding it; a released officer returns to the first stronghold
// of its former owner, or leaves the map if the owner holds none.
//
// Postcondition: the captive is no longer listed on success.
func (m *Manager) Dispose(officerID string, d force.Disposition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := -1
	for i, c := range m.captives {
		if c.Prisoner.Officer.ID == officerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%q: %w", officerID, ErrUnknownPrisoner)
	}
	c := m.captives[idx]
	if err := c.Prisoner.Dispose(d); err != nil {
		return err
	}

	switch d {
	case force.DispositionHire:
		if s, ok := m.strongholds[c.HeldAt]; ok {
			s.Officers = append(s.Officers, c.Prisoner.Officer)
		}
	case force.DispositionRelease:
		for _, s := range m.sorted() {
			if s.Owner == c.FormerOwner {
				s.Officers = append(s.Officers, c.Prisoner.Officer)
				break
			}
		}
	}
	m.captives = append(m.captives[:idx], m.captives[idx+1:]...)

	m.logger.Info("prisoner disposed",
		zap.String("officer", officerID),
		zap.Stringer("disposition", d),
		zap.String("captor", c.Captor),
	)
	return nil
}
