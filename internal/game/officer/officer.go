// Package officer defines the commanding personnel that lead forces and
// garrisons, including their stat profile, role and ideological faction.
package officer

import (
	"fmt"
	"strings"
)

// Stats is the five-stat profile of a commanding officer. Each stat is in [0, 100].
type Stats struct {
	Leadership   float64 `yaml:"leadership"`
	Strength     float64 `yaml:"strength"`
	Intelligence float64 `yaml:"intelligence"`
	Politics     float64 `yaml:"politics"`
	Charm        float64 `yaml:"charm"`
}

// Add returns the field-wise sum of s and o.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Leadership:   s.Leadership + o.Leadership,
		Strength:     s.Strength + o.Strength,
		Intelligence: s.Intelligence + o.Intelligence,
		Politics:     s.Politics + o.Politics,
		Charm:        s.Charm + o.Charm,
	}
}

// Scale returns s with every field multiplied by f.
func (s Stats) Scale(f float64) Stats {
	return Stats{
		Leadership:   s.Leadership * f,
		Strength:     s.Strength * f,
		Intelligence: s.Intelligence * f,
		Politics:     s.Politics * f,
		Charm:        s.Charm * f,
	}
}

// Clamp returns s with every field limited to [0, 100].
func (s Stats) Clamp() Stats {
	return Stats{
		Leadership:   clamp100(s.Leadership),
		Strength:     clamp100(s.Strength),
		Intelligence: clamp100(s.Intelligence),
		Politics:     clamp100(s.Politics),
		Charm:        clamp100(s.Charm),
	}
}

func clamp100(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// Ideology is the ideological faction tag carried by an officer.
// The zero value is unaligned and neither shares nor opposes any other tag.
type Ideology string

const (
	IdeologyNone           Ideology = ""
	IdeologyReformist      Ideology = "reformist"
	IdeologyTraditionalist Ideology = "traditionalist"
	IdeologyMercantile     Ideology = "mercantile"
	IdeologyZealot         Ideology = "zealot"
)

var opposed = map[Ideology]Ideology{
	IdeologyReformist:      IdeologyTraditionalist,
	IdeologyTraditionalist: IdeologyReformist,
	IdeologyMercantile:     IdeologyZealot,
	IdeologyZealot:         IdeologyMercantile,
}

// Shares reports whether i and o are the same non-empty ideology.
func (i Ideology) Shares(o Ideology) bool {
	return i != IdeologyNone && i == o
}

// Opposes reports whether i and o are mutually hostile ideologies.
func (i Ideology) Opposes(o Ideology) bool {
	enemy, ok := opposed[i]
	return ok && enemy == o
}

// Officer is one commanding personnel record.
//
// Invariant: Role is never nil once constructed through New or Placeholder.
type Officer struct {
	ID       string
	Name     string
	Stats    Stats
	Ideology Ideology
	Role     Role
}

// New constructs an Officer, clamping stats to [0, 100].
//
// Precondition: id must be non-empty; role may be nil (defaults to Retainer).
func New(id, name string, stats Stats, ideology Ideology, role Role) *Officer {
	if role == nil {
		role = Retainer{}
	}
	return &Officer{ID: id, Name: name, Stats: stats.Clamp(), Ideology: ideology, Role: role}
}

// placeholderStat is the stat value of the minimal stand-in commander.
const placeholderStat = 10

// Placeholder returns the minimal-stat commander substituted when a force
// arrives with no usable officers.
func Placeholder() *Officer {
	return &Officer{
		ID:   "placeholder",
		Name: "Militia Captain",
		Stats: Stats{
			Leadership:   placeholderStat,
			Strength:     placeholderStat,
			Intelligence: placeholderStat,
			Politics:     placeholderStat,
			Charm:        placeholderStat,
		},
		Role: Retainer{},
	}
}

// IsPlaceholder reports whether o is the substituted stand-in commander.
func (o *Officer) IsPlaceholder() bool { return o != nil && o.ID == "placeholder" }

// Sanitize drops nil entries, fills a missing Role and clamps stats. If nothing
// usable remains, it returns a single Placeholder.
//
// Postcondition: len(result) >= 1 and every entry is non-nil with a non-nil Role.
func Sanitize(officers []*Officer) []*Officer {
	out := make([]*Officer, 0, len(officers))
	for _, o := range officers {
		if o == nil {
			continue
		}
		cp := *o
		if cp.Role == nil {
			cp.Role = Retainer{}
		}
		cp.Stats = cp.Stats.Clamp()
		out = append(out, &cp)
	}
	if len(out) == 0 {
		return []*Officer{Placeholder()}
	}
	return out
}

// String returns "Name (role)".
func (o *Officer) String() string {
	return fmt.Sprintf("%s (%s)", o.Name, RoleName(o.Role))
}

// ParseIdeology converts a scenario string into an Ideology.
//
// Postcondition: Returns an error for unknown names.
func ParseIdeology(s string) (Ideology, error) {
	switch id := Ideology(strings.ToLower(strings.TrimSpace(s))); id {
	case IdeologyNone, IdeologyReformist, IdeologyTraditionalist, IdeologyMercantile, IdeologyZealot:
		return id, nil
	default:
		return IdeologyNone, fmt.Errorf("officer: unknown ideology %q", s)
	}
}
