package officer

import (
	"fmt"
	"strings"
)

// Role is the capability descriptor carried by each officer. It is a closed
// sum type: the only implementations are Lord, Castellan, Strategist and Retainer.
type Role interface {
	isRole()
}

// Lord is the ranking leader of a clan. Lords are harder to capture.
type Lord struct{}

// Castellan commands a stronghold's garrison and improves repairs.
type Castellan struct{}

// Strategist advises in battle and lends intelligence to covert actions.
type Strategist struct{}

// Retainer is an officer with no special capability.
type Retainer struct{}

func (Lord) isRole()       {}
func (Castellan) isRole()  {}
func (Strategist) isRole() {}
func (Retainer) isRole()   {}

// RoleName returns the canonical lowercase name of r.
func RoleName(r Role) string {
	switch r.(type) {
	case Lord:
		return "lord"
	case Castellan:
		return "castellan"
	case Strategist:
		return "strategist"
	case Retainer, nil:
		return "retainer"
	default:
		panic(fmt.Sprintf("officer: unhandled role %T", r))
	}
}

// ParseRole converts a scenario string into a Role.
//
// Postcondition: Returns Retainer for an empty string; an error for unknown names.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lord":
		return Lord{}, nil
	case "castellan":
		return Castellan{}, nil
	case "strategist":
		return Strategist{}, nil
	case "", "retainer":
		return Retainer{}, nil
	default:
		return nil, fmt.Errorf("officer: unknown role %q", s)
	}
}

// IsLord reports whether o holds the Lord role.
func (o *Officer) IsLord() bool {
	_, ok := o.Role.(Lord)
	return ok
}

// IsCastellan reports whether o holds the Castellan role.
func (o *Officer) IsCastellan() bool {
	_, ok := o.Role.(Castellan)
	return ok
}

// IsStrategist reports whether o holds the Strategist role.
func (o *Officer) IsStrategist() bool {
	_, ok := o.Role.(Strategist)
	return ok
}
