package siege

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/castlesiege/internal/game/dice"
	"github.com/cory-johannsen/castlesiege/internal/game/field"
	"github.com/cory-johannsen/castlesiege/internal/game/force"
)

// Option customises a session at creation.
type Option func(*beginOptions)

type beginOptions struct {
	fieldOutcome *field.Outcome
	subscribers  []Subscriber
}

// WithFieldOutcome folds a finished field battle into the session's starting
// state; a decisive field result resolves the session immediately.
func WithFieldOutcome(o field.Outcome) Option {
	return func(b *beginOptions) { b.fieldOutcome = &o }
}

// WithSubscriber registers fn for this session's events only.
func WithSubscriber(fn Subscriber) Option {
	return func(b *beginOptions) { b.subscribers = append(b.subscribers, fn) }
}

// entry pairs a Session with the mutex serialising its actions.
type entry struct {
	mu      sync.Mutex
	session *Session
}

// Engine manages all active sieges, keyed by Handle.
// All methods are safe for concurrent use.
type Engine struct {
	params Params
	roller *dice.Roller
	logger *zap.Logger

	mu          sync.RWMutex
	sessions    map[Handle]*entry
	subscribers []Subscriber
}

// NewEngine creates an empty siege Engine.
//
// Precondition: src must be non-nil. A nil logger disables logging.
// Postcondition: Returns a non-nil Engine ready for use.
func NewEngine(p Params, src dice.Source, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		params:   p,
		roller:   dice.NewRoller(src, logger),
		logger:   logger,
		sessions: make(map[Handle]*entry),
	}
}

// Params returns the tuning the engine was created with.
func (e *Engine) Params() Params { return e.params }

// Subscribe registers fn for the events of every session begun afterwards.
func (e *Engine) Subscribe(fn Subscriber) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subscribers = append(e.subscribers, fn)
}

// BeginSiege opens a session between attacker and garrison and gives the
// attacker the first turn. Both are copied; the caller's records are never
// touched by the session.
//
// Precondition: attacker and garrison are non-nil.
// Postcondition: the returned handle names a session in StateRoundExchange,
// or in StateResolved when a decisive field outcome was supplied.
func (e *Engine) BeginSiege(attacker *force.Force, garrison *force.Garrison, opts ...Option) (Handle, error) {
	if attacker == nil || garrison == nil {
		return Handle{}, ErrInvalidParticipants
	}
	var o beginOptions
	for _, opt := range opts {
		opt(&o)
	}

	e.mu.RLock()
	subs := append(append([]Subscriber(nil), e.subscribers...), o.subscribers...)
	e.mu.RUnlock()

	h := Handle(uuid.New())
	s := NewSession(e.params, attacker, garrison, e.roller, e.logger.With(zap.String("handle", h.String())))
	s.handle = h
	s.publish = func(ev Event) {
		for _, fn := range subs {
			fn(ev)
		}
	}

	e.logger.Info("siege begun",
		zap.String("handle", h.String()),
		zap.String("stronghold", garrison.StrongholdID),
		zap.Int("attacker_soldiers", s.attacker.Soldiers),
		zap.Int("defender_soldiers", s.garrison.Soldiers),
		zap.Int("wall", s.garrison.Wall),
	)

	if o.fieldOutcome != nil {
		if err := s.ApplyFieldOutcome(*o.fieldOutcome); err != nil {
			return Handle{}, err
		}
	}
	if s.State() == StateInitiated {
		if err := s.Commence(); err != nil {
			return Handle{}, err
		}
	}

	e.mu.Lock()
	e.sessions[h] = &entry{session: s}
	e.mu.Unlock()
	return h, nil
}

func (e *Engine) lookup(h Handle) (*entry, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	en, ok := e.sessions[h]
	if !ok {
		return nil, fmt.Errorf("%s: %w", h, ErrUnknownSession)
	}
	return en, nil
}

// SubmitAction applies side's action to session h. Once accepted, an action
// is atomic and irrevocable.
//
// Postcondition: on error the session is unchanged.
func (e *Engine) SubmitAction(h Handle, side force.Side, a Action) (RoundResult, error) {
	en, err := e.lookup(h)
	if err != nil {
		return RoundResult{}, err
	}
	en.mu.Lock()
	defer en.mu.Unlock()
	return en.session.Submit(side, a)
}

// IsResolved reports whether session h has reached its outcome.
func (e *Engine) IsResolved(h Handle) (bool, error) {
	en, err := e.lookup(h)
	if err != nil {
		return false, err
	}
	en.mu.Lock()
	defer en.mu.Unlock()
	return en.session.State() == StateResolved, nil
}

// Outcome returns a copy of session h's canonical outcome.
//
// Postcondition: Returns ErrNotResolved while the session is in progress.
func (e *Engine) Outcome(h Handle) (Outcome, error) {
	en, err := e.lookup(h)
	if err != nil {
		return Outcome{}, err
	}
	en.mu.Lock()
	defer en.mu.Unlock()
	o := en.session.Outcome()
	if o == nil {
		return Outcome{}, fmt.Errorf("%s: %w", h, ErrNotResolved)
	}
	return o.Clone(), nil
}

// View is a read-only snapshot of a session for decision makers and displays.
type View struct {
	State      State
	Turn       force.Side
	Round      int
	RoundCap   int
	Fortified  bool
	Attacker   *force.Force
	Garrison   *force.Garrison
	Casualties [2]int
}

// View returns a snapshot of session h.
func (e *Engine) View(h Handle) (View, error) {
	en, err := e.lookup(h)
	if err != nil {
		return View{}, err
	}
	en.mu.Lock()
	defer en.mu.Unlock()
	s := en.session
	return View{
		State:      s.State(),
		Turn:       s.Turn(),
		Round:      s.Round(),
		RoundCap:   s.params.RoundCap,
		Fortified:  s.Fortified(),
		Attacker:   s.Attacker(),
		Garrison:   s.Garrison(),
		Casualties: s.Casualties(),
	}, nil
}

// End discards session h.
func (e *Engine) End(h Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sessions, h)
}
