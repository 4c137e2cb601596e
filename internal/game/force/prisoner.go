package force

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/castlesiege/internal/game/officer"
)

// Disposition is the fate decided for a captured officer.
type Disposition int

const (
	DispositionPending Disposition = iota
	DispositionHire
	DispositionRelease
	DispositionExecute
)

// String returns the lowercase disposition name.
func (d Disposition) String() string {
	switch d {
	case DispositionPending:
		return "pending"
	case DispositionHire:
		return "hire"
	case DispositionRelease:
		return "release"
	case DispositionExecute:
		return "execute"
	default:
		return "unknown"
	}
}

// ErrAlreadyDisposed is returned when a disposition is applied twice.
var ErrAlreadyDisposed = errors.New("prisoner already disposed")

// Prisoner is a captured officer awaiting a decision by the capturing side.
type Prisoner struct {
	Officer     *officer.Officer
	CapturedBy  Side
	Disposition Disposition
}

// Dispose records d as the prisoner's fate. Once applied, ownership of the
// record passes to the caller's world.
//
// Precondition: d must not be DispositionPending.
// Postcondition: Returns ErrAlreadyDisposed if a disposition was already applied.
func (p *Prisoner) Dispose(d Disposition) error {
	if d == DispositionPending {
		return fmt.Errorf("prisoner %s: pending is not a disposition", p.Officer.Name)
	}
	if p.Disposition != DispositionPending {
		return fmt.Errorf("prisoner %s: %w", p.Officer.Name, ErrAlreadyDisposed)
	}
	p.Disposition = d
	return nil
}
