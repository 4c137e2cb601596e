package ai

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Archetype is a commander personality: how much advantage it wants before
// marching, how it plays when it cannot calculate, and which doctrine it follows.
type Archetype struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	// AttackThreshold is the perceived own/enemy strength ratio that must be
	// exceeded before attacking.
	AttackThreshold float64 `yaml:"attack_threshold"`
	// Doctrine names an HTN domain consulted before the built-in policy; empty
	// means none.
	Doctrine string `yaml:"doctrine"`
	// HoldGround keeps a defending field unit in place until the enemy closes.
	HoldGround bool `yaml:"hold_ground"`
	// Weights drive the weighted-random siege policy, keyed by action name.
	// Missing actions weigh 0.
	Weights map[string]float64 `yaml:"weights"`
}

// Validate checks the archetype's fields.
func (a Archetype) Validate() error {
	if a.ID == "" {
		return errors.New("ai.Archetype: ID must not be empty")
	}
	if a.AttackThreshold <= 0 {
		return fmt.Errorf("ai.Archetype %q: attack_threshold must be > 0, got %v", a.ID, a.AttackThreshold)
	}
	for name, w := range a.Weights {
		if w < 0 {
			return fmt.Errorf("ai.Archetype %q: weight for %q must be >= 0", a.ID, name)
		}
	}
	return nil
}

// DefaultArchetypes returns the built-in personalities; "balanced" is the fallback.
func DefaultArchetypes() []Archetype {
	return []Archetype{
		{
			ID: "balanced", Name: "Balanced", AttackThreshold: 1.5,
			Weights: map[string]float64{
				"charge": 3, "ranged": 3, "siege": 3, "arson": 1, "sabotage": 1,
				"sortie-charge": 2, "hold": 3, "repair": 2,
			},
		},
		{
			ID: "aggressive", Name: "Aggressive", AttackThreshold: 1.1,
			Weights: map[string]float64{
				"charge": 6, "ranged": 2, "siege": 3, "arson": 1, "sabotage": 1,
				"sortie-charge": 5, "hold": 1, "repair": 1,
			},
		},
		{
			ID: "cautious", Name: "Cautious", AttackThreshold: 2.0, HoldGround: true,
			Weights: map[string]float64{
				"charge": 1, "ranged": 4, "siege": 4, "arson": 2, "sabotage": 2,
				"sortie-charge": 1, "hold": 5, "repair": 3,
			},
		},
	}
}

type yamlArchetypeFile struct {
	Archetypes []Archetype `yaml:"archetypes"`
}

// LoadArchetypes reads a YAML file with a top-level "archetypes" list.
//
// Postcondition: every returned archetype is valid and IDs are unique.
func LoadArchetypes(path string) ([]Archetype, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ai.LoadArchetypes: reading %q: %w", path, err)
	}
	var f yamlArchetypeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("ai.LoadArchetypes: parsing %q: %w", path, err)
	}
	seen := make(map[string]struct{}, len(f.Archetypes))
	for _, a := range f.Archetypes {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[a.ID]; dup {
			return nil, fmt.Errorf("ai.LoadArchetypes: duplicate archetype %q", a.ID)
		}
		seen[a.ID] = struct{}{}
	}
	return f.Archetypes, nil
}
