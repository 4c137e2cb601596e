package world

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/castlesiege/internal/game/force"
	"github.com/cory-johannsen/castlesiege/internal/game/officer"
)

// Scenario is a loaded map plus the battles to fight on it.
type Scenario struct {
	ID          string
	Name        string
	Description string
	Strongholds []*Stronghold
	Battles     []Battle
}

// Battle is a scripted march in a scenario.
type Battle struct {
	Order Order
	// Field fights a maneuver battle before the siege.
	Field bool
	// AttackerArchetype and DefenderArchetype name AI personalities; empty
	// uses the default.
	AttackerArchetype string
	DefenderArchetype string
	// Human is the side under human command: "attacker", "defender" or empty.
	Human string
}

// yamlScenarioFile is the top-level YAML structure for scenario files.
type yamlScenarioFile struct {
	Scenario yamlScenario `yaml:"scenario"`
}

type yamlScenario struct {
	ID          string           `yaml:"id"`
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Strongholds []yamlStronghold `yaml:"strongholds"`
	Battles     []yamlBattle     `yaml:"battles"`
}

type yamlStronghold struct {
	ID            string          `yaml:"id"`
	Name          string          `yaml:"name"`
	Owner         string          `yaml:"owner"`
	Soldiers      int             `yaml:"soldiers"`
	Gold          int             `yaml:"gold"`
	Rice          int             `yaml:"rice"`
	Wall          int             `yaml:"wall"`
	MaxWall       int             `yaml:"max_wall"`
	Training      float64         `yaml:"training"`
	Morale        float64         `yaml:"morale"`
	Loyalty       float64         `yaml:"loyalty"`
	Fortification float64         `yaml:"fortification"`
	Equipment     force.Equipment `yaml:"equipment"`
	Adjacent      []string        `yaml:"adjacent"`
	Officers      []yamlOfficer   `yaml:"officers"`
}

type yamlOfficer struct {
	ID           string  `yaml:"id"`
	Name         string  `yaml:"name"`
	Role         string  `yaml:"role"`
	Ideology     string  `yaml:"ideology"`
	Leadership   float64 `yaml:"leadership"`
	Strength     float64 `yaml:"strength"`
	Intelligence float64 `yaml:"intelligence"`
	Politics     float64 `yaml:"politics"`
	Charm        float64 `yaml:"charm"`
}

type yamlBattle struct {
	Source            string   `yaml:"source"`
	Target            string   `yaml:"target"`
	Soldiers          int      `yaml:"soldiers"`
	Officers          []string `yaml:"officers"`
	Field             bool     `yaml:"field"`
	AttackerArchetype string   `yaml:"attacker_archetype"`
	DefenderArchetype string   `yaml:"defender_archetype"`
	Human             string   `yaml:"human"`
}

// LoadScenarioFromFile reads and validates a single scenario YAML file.
//
// Precondition: path must point to a valid YAML scenario file.
// Postcondition: Returns a validated Scenario or a non-nil error.
func LoadScenarioFromFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file %s: %w", path, err)
	}
	return LoadScenarioFromBytes(data)
}

// LoadScenarioFromBytes parses and validates a scenario from YAML bytes.
//
// Postcondition: Returns a validated Scenario or a non-nil error.
func LoadScenarioFromBytes(data []byte) (*Scenario, error) {
	var file yamlScenarioFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing scenario YAML: %w", err)
	}
	sc, err := convertYAMLScenario(file.Scenario)
	if err != nil {
		return nil, err
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("validating scenario: %w", err)
	}
	return sc, nil
}

// LoadScenariosFromDir loads all YAML files in a directory as scenarios,
// ordered by file name.
//
// Postcondition: Returns all validated scenarios or the first error encountered.
func LoadScenariosFromDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading scenario directory %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var scenarios []*Scenario
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		sc, err := LoadScenarioFromFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("loading scenario from %s: %w", name, err)
		}
		scenarios = append(scenarios, sc)
	}
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}
	return scenarios, nil
}

// convertYAMLScenario converts the parsed YAML structures into domain types.
func convertYAMLScenario(ys yamlScenario) (*Scenario, error) {
	sc := &Scenario{
		ID:          ys.ID,
		Name:        ys.Name,
		Description: strings.TrimSpace(ys.Description),
	}
	for _, yst := range ys.Strongholds {
		s := &Stronghold{
			ID:            yst.ID,
			Name:          yst.Name,
			Owner:         yst.Owner,
			Soldiers:      yst.Soldiers,
			Gold:          yst.Gold,
			Rice:          yst.Rice,
			Wall:          yst.Wall,
			MaxWall:       yst.MaxWall,
			Training:      yst.Training,
			Morale:        yst.Morale,
			Loyalty:       yst.Loyalty,
			Fortification: yst.Fortification,
			Equipment:     yst.Equipment,
			Adjacent:      yst.Adjacent,
		}
		if s.Name == "" {
			s.Name = s.ID
		}
		for _, yo := range yst.Officers {
			role, err := officer.ParseRole(yo.Role)
			if err != nil {
				return nil, fmt.Errorf("stronghold %q officer %q: %w", yst.ID, yo.ID, err)
			}
			ideology, err := officer.ParseIdeology(yo.Ideology)
			if err != nil {
				return nil, fmt.Errorf("stronghold %q officer %q: %w", yst.ID, yo.ID, err)
			}
			name := yo.Name
			if name == "" {
				name = yo.ID
			}
			s.Officers = append(s.Officers, officer.New(yo.ID, name, officer.Stats{
				Leadership:   yo.Leadership,
				Strength:     yo.Strength,
				Intelligence: yo.Intelligence,
				Politics:     yo.Politics,
				Charm:        yo.Charm,
			}, ideology, role))
		}
		sc.Strongholds = append(sc.Strongholds, s)
	}
	for _, yb := range ys.Battles {
		sc.Battles = append(sc.Battles, Battle{
			Order: Order{
				SourceID: yb.Source,
				TargetID: yb.Target,
				Soldiers: yb.Soldiers,
				Officers: yb.Officers,
			},
			Field:             yb.Field,
			AttackerArchetype: yb.AttackerArchetype,
			DefenderArchetype: yb.DefenderArchetype,
			Human:             strings.ToLower(yb.Human),
		})
	}
	return sc, nil
}

// Validate checks the scenario's internal consistency.
//
// Postcondition: Returns nil if valid, or an error describing all violations.
func (sc *Scenario) Validate() error {
	var errs []error
	if sc.ID == "" {
		errs = append(errs, errors.New("scenario ID must not be empty"))
	}
	if len(sc.Strongholds) == 0 {
		errs = append(errs, fmt.Errorf("scenario %q has no strongholds", sc.ID))
	}
	byID := make(map[string]*Stronghold, len(sc.Strongholds))
	for _, s := range sc.Strongholds {
		if err := s.Validate(); err != nil {
			errs = append(errs, err)
		}
		if _, dup := byID[s.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate stronghold ID %q", s.ID))
		}
		byID[s.ID] = s
	}
	for _, s := range sc.Strongholds {
		for _, adj := range s.Adjacent {
			if _, ok := byID[adj]; !ok {
				errs = append(errs, fmt.Errorf("stronghold %q: adjacent to unknown stronghold %q", s.ID, adj))
			}
		}
	}
	for i, b := range sc.Battles {
		src, okS := byID[b.Order.SourceID]
		dst, okT := byID[b.Order.TargetID]
		switch {
		case !okS || !okT:
			errs = append(errs, fmt.Errorf("battle %d: unknown source %q or target %q", i, b.Order.SourceID, b.Order.TargetID))
		case !src.IsAdjacent(dst.ID):
			errs = append(errs, fmt.Errorf("battle %d: %q is not adjacent to %q", i, src.ID, dst.ID))
		case src.Owner == dst.Owner:
			errs = append(errs, fmt.Errorf("battle %d: %q and %q share owner %q", i, src.ID, dst.ID, src.Owner))
		}
		if b.Order.Soldiers < 1 {
			errs = append(errs, fmt.Errorf("battle %d: soldiers must be >= 1", i))
		}
		switch b.Human {
		case "", "attacker", "defender":
		default:
			errs = append(errs, fmt.Errorf("battle %d: human must be attacker, defender or empty, got %q", i, b.Human))
		}
	}
	return errors.Join(errs...)
}
