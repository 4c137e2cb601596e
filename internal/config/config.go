// Package config provides Viper-based configuration loading for the siege
// simulator.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/castlesiege/internal/game/ai"
	"github.com/cory-johannsen/castlesiege/internal/game/field"
	"github.com/cory-johannsen/castlesiege/internal/game/siege"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// EventLog writes each resolved siege round's narrative to the log.
	EventLog bool `mapstructure:"event_log"`
}

// AIConfig holds AI tuning and the archetype roster.
type AIConfig struct {
	ai.Params `mapstructure:",squash"`
	// ArchetypeFile is a YAML file of archetypes; empty uses the built-ins.
	ArchetypeFile string `mapstructure:"archetype_file"`
}

// ScriptingConfig holds doctrine and Lua script locations.
type ScriptingConfig struct {
	// DoctrineDir holds HTN doctrine YAML files; empty disables doctrines.
	DoctrineDir string `mapstructure:"doctrine_dir"`
	// ScriptDir holds one subdirectory of Lua files per doctrine ID, plus
	// an optional "global" subdirectory shared by all.
	ScriptDir string `mapstructure:"script_dir"`
	// InstructionLimit bounds the Lua instructions of one hook call.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// BattleConfig holds settings for driving battles.
type BattleConfig struct {
	// Pace is the delay between resolved turns; zero resolves immediately.
	Pace time.Duration `mapstructure:"pace"`
	// Seed makes every roll reproducible; zero draws from crypto/rand.
	Seed uint64 `mapstructure:"seed"`
	// Trials is the number of battles run per engagement in batch mode.
	Trials int `mapstructure:"trials"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Siege     siege.Params    `mapstructure:"siege"`
	Field     field.Params    `mapstructure:"field"`
	AI        AIConfig        `mapstructure:"ai"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
	Battle    BattleConfig    `mapstructure:"battle"`
}

// Default returns the stock configuration.
//
// Postcondition: Default().Validate() == nil.
func Default() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Siege:   siege.DefaultParams(),
		Field:   field.DefaultParams(),
		AI:      AIConfig{Params: ai.DefaultParams()},
		Scripting: ScriptingConfig{
			InstructionLimit: 10000,
		},
		Battle: BattleConfig{Trials: 1},
	}
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := c.Siege.Validate(); err != nil {
		errs = append(errs, "siege: "+err.Error())
	}
	if err := c.Field.Validate(); err != nil {
		errs = append(errs, "field: "+err.Error())
	}
	if err := c.AI.Params.Validate(); err != nil {
		errs = append(errs, "ai: "+err.Error())
	}
	if err := validateScripting(c.Scripting); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateBattle(c.Battle); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateScripting(s ScriptingConfig) error {
	if s.InstructionLimit < 1 {
		return fmt.Errorf("scripting.instruction_limit must be >= 1, got %d", s.InstructionLimit)
	}
	if s.ScriptDir != "" && s.DoctrineDir == "" {
		return fmt.Errorf("scripting.script_dir %q set without scripting.doctrine_dir", s.ScriptDir)
	}
	return nil
}

func validateBattle(b BattleConfig) error {
	var errs []string
	if b.Pace < 0 {
		errs = append(errs, "battle.pace must not be negative")
	}
	if b.Trials < 1 {
		errs = append(errs, fmt.Sprintf("battle.trials must be >= 1, got %d", b.Trials))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. Keys missing from the file keep their
// Default values.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// New returns a Viper instance with the SIEGE_ environment prefix and the
// defaults registered. Only keys with a registered default can be set from
// the environment alone.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("SIEGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// LoadFromViper builds a Config from an already-configured Viper instance,
// starting from Default.
//
// Precondition: v must be non-nil.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.event_log", d.Logging.EventLog)

	v.SetDefault("siege.round_cap", d.Siege.RoundCap)
	v.SetDefault("siege.capture_chance", d.Siege.CaptureChance)

	v.SetDefault("field.radius", d.Field.Radius)
	v.SetDefault("field.turn_limit", d.Field.TurnLimit)
	v.SetDefault("field.terrain.seed", d.Field.Terrain.Seed)

	v.SetDefault("ai.archetype_file", d.AI.ArchetypeFile)

	v.SetDefault("scripting.doctrine_dir", d.Scripting.DoctrineDir)
	v.SetDefault("scripting.script_dir", d.Scripting.ScriptDir)
	v.SetDefault("scripting.instruction_limit", d.Scripting.InstructionLimit)

	v.SetDefault("battle.pace", d.Battle.Pace)
	v.SetDefault("battle.seed", d.Battle.Seed)
	v.SetDefault("battle.trials", d.Battle.Trials)
}
