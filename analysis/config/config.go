// Package config holds the options controlling the analyses, loaded from a
// YAML or TOML file, and the leveled loggers configured from them.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	// StrategyPasses iterates full passes over the blocks in program order.
	StrategyPasses = "passes"
	// StrategyWorklist only revisits successors of blocks whose exit state changed.
	StrategyWorklist = "worklist"

	// DivZeroFail aborts the analysis on a division by zero.
	DivZeroFail = "fail"
	// DivZeroBottom assigns ⊥ to the destination of a division by zero and continues.
	DivZeroBottom = "bottom"

	// DefaultWideningDelay is the number of entry state changes a loop head
	// goes through before the range analysis starts widening.
	DefaultWideningDelay = 3
)

// Config contains the analysis options. Fields that are not set in the
// config file keep their default value.
type Config struct {
	sourceFile string

	// LogLevel controls the verbosity of the tool, see LogLevel.
	LogLevel int `yaml:"log-level" toml:"log-level"`

	// Strategy selects how the dataflow engine iterates to a fixpoint: "passes" or "worklist".
	Strategy string `yaml:"strategy" toml:"strategy"`

	// WideningDelay is the number of times the entry state of a loop head may
	// change before widening is applied. Only used by analyses that widen.
	WideningDelay int `yaml:"widening-delay" toml:"widening-delay"`

	// DivisionByZero selects what happens when a division by zero is found: "fail" or "bottom".
	DivisionByZero string `yaml:"division-by-zero" toml:"division-by-zero"`

	// DumpEntry also prints the entry state of every block.
	DumpEntry bool `yaml:"dump-entry" toml:"dump-entry"`

	// NoColorize disables colored output.
	NoColorize bool `yaml:"no-colorize" toml:"no-colorize"`

	// Analyses lists the analyses to run when none is requested on the command line.
	Analyses []string `yaml:"analyses" toml:"analyses"`
}

// NewDefault returns the default config.
func NewDefault() *Config {
	return &Config{
		LogLevel:       int(InfoLevel),
		Strategy:       StrategyPasses,
		WideningDelay:  DefaultWideningDelay,
		DivisionByZero: DivZeroFail,
		DumpEntry:      false,
		NoColorize:     false,
		Analyses:       nil,
	}
}

// Load reads a configuration from a file. Files with a .toml extension are
// decoded as TOML, anything else as YAML.
func Load(filename string) (*Config, error) {
	cfg := NewDefault()
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(filename), ".toml") {
		if _, err := toml.Decode(string(b), cfg); err != nil {
			return nil, fmt.Errorf("could not unmarshal toml config file: %w", err)
		}
	} else if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal yaml config file: %w", err)
	}

	cfg.sourceFile = filename
	if err := cfg.normalize(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", filename, err)
	}
	return cfg, nil
}

// normalize restores defaults for unset options and rejects unknown values.
func (c *Config) normalize() error {
	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if c.LogLevel == 0 {
		c.LogLevel = int(InfoLevel)
	}
	if c.LogLevel < int(ErrLevel) || c.LogLevel > int(TraceLevel) {
		return fmt.Errorf("log-level %d is out of range [%d, %d]", c.LogLevel, ErrLevel, TraceLevel)
	}

	switch c.Strategy {
	case "":
		c.Strategy = StrategyPasses
	case StrategyPasses, StrategyWorklist:
	default:
		return fmt.Errorf("unknown strategy %q", c.Strategy)
	}

	switch c.DivisionByZero {
	case "":
		c.DivisionByZero = DivZeroFail
	case DivZeroFail, DivZeroBottom:
	default:
		return fmt.Errorf("unknown division-by-zero policy %q", c.DivisionByZero)
	}

	if c.WideningDelay < 0 {
		return fmt.Errorf("widening-delay must not be negative, got %d", c.WideningDelay)
	}
	return nil
}

// SourceFile returns the file the config was loaded from, if any.
func (c *Config) SourceFile() string {
	return c.sourceFile
}
