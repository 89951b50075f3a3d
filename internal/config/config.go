// Package config loads runtime settings from a YAML file and the
// environment.
//
// Precedence, lowest first: built-in defaults, the YAML file, BOUNDARY_*
// environment variables, command-line flags (applied by the cli).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/roach88/boundary/internal/effect"
	"github.com/roach88/boundary/internal/logging"
)

// EnvPrefix prefixes every environment variable the runtime reads.
const EnvPrefix = "BOUNDARY_"

// Config is the complete runtime configuration.
type Config struct {
	Logger        Logger        `yaml:"logger"`
	CustomEffects CustomEffects `yaml:"customEffects"`
	Store         Store         `yaml:"store"`
	Engine        Engine        `yaml:"engine"`
	Core          Core          `yaml:"core"`
}

// Logger configures debug output.
type Logger struct {
	// Preset is the starting point: default, debug, verbose or trace.
	Preset    string   `yaml:"preset" env:"LOG_PRESET"`
	Debug     bool     `yaml:"debug" env:"DEBUG"`
	Domains   []string `yaml:"domains" env:"DEBUG_DOMAINS" envSeparator:","`
	Verbosity string   `yaml:"verbosity" env:"DEBUG_VERBOSITY"`

	// OverrideBypassesFilters keeps the preset's policy when unset.
	OverrideBypassesFilters *bool `yaml:"overrideBypassesFilters"`

	// Format is the handler output: text or json.
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// CustomEffects configures the custom effect channel.
type CustomEffects struct {
	UseBacklog      *bool  `yaml:"useBacklog"`
	BacklogCapacity int    `yaml:"backlogCapacity" env:"BACKLOG_CAPACITY"`
	Fallback        string `yaml:"fallback" env:"CUSTOM_FALLBACK"`
}

// Store configures the SQLite journal.
type Store struct {
	// Path of the database. Empty disables the journal.
	Path string `yaml:"path" env:"STORE_PATH"`
	// PersistStorage backs localStorage with the database.
	PersistStorage bool `yaml:"persistStorage" env:"PERSIST_STORAGE"`
}

// Engine configures the message loop.
type Engine struct {
	MaxCycles int `yaml:"maxCycles" env:"MAX_CYCLES"`
}

// Core configures an external core program.
type Core struct {
	Command  string        `yaml:"command" env:"CORE"`
	Timeout  time.Duration `yaml:"timeout" env:"CORE_TIMEOUT"`
	Validate bool          `yaml:"validate" env:"CORE_VALIDATE"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Logger: Logger{Preset: "default", Verbosity: "normal", Format: "text"},
		CustomEffects: CustomEffects{
			BacklogCapacity: effect.DefaultBacklogCapacity,
			Fallback:        "original",
		},
		Engine: Engine{MaxCycles: 1000},
		Core:   Core{Timeout: 10 * time.Second},
	}
}

// Load reads path over the defaults, overlays the process environment
// and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return c.decode(data)
}

// decode parses YAML over c with strict field validation.
func (c *Config) decode(data []byte) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// ApplyEnv overlays BOUNDARY_* variables. A nil environ reads the
// process environment. Unset variables leave fields unchanged.
func (c *Config) ApplyEnv(environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(c, opts); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	return nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.LoggingConfig(); err != nil {
		errs = append(errs, err)
	}
	if _, err := effect.ParseFallback(c.CustomEffects.Fallback); err != nil {
		errs = append(errs, fmt.Errorf("customEffects.fallback: %w", err))
	}
	if c.CustomEffects.BacklogCapacity < 0 {
		errs = append(errs, fmt.Errorf("customEffects.backlogCapacity: must not be negative, got %d", c.CustomEffects.BacklogCapacity))
	}
	if c.Engine.MaxCycles < 0 {
		errs = append(errs, fmt.Errorf("engine.maxCycles: must not be negative, got %d", c.Engine.MaxCycles))
	}
	if c.Core.Timeout < 0 {
		errs = append(errs, fmt.Errorf("core.timeout: must not be negative, got %s", c.Core.Timeout))
	}
	if c.Store.PersistStorage && c.Store.Path == "" {
		errs = append(errs, errors.New("store.persistStorage: requires store.path"))
	}
	return errors.Join(errs...)
}

// LoggingConfig builds the logger configuration.
func (c *Config) LoggingConfig() (logging.Config, error) {
	cfg, err := logging.Preset(c.Logger.Preset)
	if err != nil {
		return logging.Config{}, fmt.Errorf("logger.preset: %w", err)
	}
	if len(c.Logger.Domains) > 0 {
		domains, err := logging.ParseDomains(c.Logger.Domains)
		if err != nil {
			return logging.Config{}, fmt.Errorf("logger.domains: %w", err)
		}
		cfg.DebugDomains = domains
	}
	if c.Logger.Verbosity != "" {
		v, err := logging.ParseVerbosity(c.Logger.Verbosity)
		if err != nil {
			return logging.Config{}, fmt.Errorf("logger.verbosity: %w", err)
		}
		// A preset's verbosity is only raised, never lowered.
		if v > cfg.Verbosity {
			cfg.Verbosity = v
		}
	}
	format, err := logging.ParseFormat(c.Logger.Format)
	if err != nil {
		return logging.Config{}, fmt.Errorf("logger.format: %w", err)
	}
	cfg.Format = format
	cfg.Override = cfg.Override || c.Logger.Debug
	if c.Logger.OverrideBypassesFilters != nil {
		cfg.OverrideBypassesFilters = *c.Logger.OverrideBypassesFilters
	}
	return cfg, nil
}

// CustomConfig builds the custom effect channel configuration.
func (c *Config) CustomConfig() (effect.CustomConfig, error) {
	cfg := effect.DefaultCustomConfig()
	fallback, err := effect.ParseFallback(c.CustomEffects.Fallback)
	if err != nil {
		return effect.CustomConfig{}, fmt.Errorf("customEffects.fallback: %w", err)
	}
	cfg.Fallback = fallback
	if c.CustomEffects.BacklogCapacity > 0 {
		cfg.Capacity = c.CustomEffects.BacklogCapacity
	}
	if c.CustomEffects.UseBacklog != nil {
		cfg.UseBacklog = *c.CustomEffects.UseBacklog
	}
	return cfg, nil
}
