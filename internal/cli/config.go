package cli

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pelletier/go-toml/v2"

	"github.com/toyz/mergeme/internal/errors"
	"github.com/toyz/mergeme/internal/logging"
	"github.com/toyz/mergeme/internal/models"
	"github.com/toyz/mergeme/internal/parser"
	"github.com/toyz/mergeme/internal/utils"
)

// ConfigFileName is looked up in the working directory when no --config is given
const ConfigFileName = "mergeme.toml"

// MaxJobs bounds the jobs setting
const MaxJobs = 256

// Config holds the settings of one CLI invocation. File values are loaded
// first; command line flags override them.
type Config struct {
	Prefix     string   `toml:"prefix"`     // directive prefix
	Output     string   `toml:"output"`     // generated file name for Go packages
	Assertions bool     `toml:"assertions"` // emit compile-time interface assertions
	Jobs       int      `toml:"jobs"`       // parallel packages, 0 means GOMAXPROCS
	LogLevel   string   `toml:"log_level"`  // trace, debug, info, warn or error
	Features   Features `toml:"features"`

	// Flag-only settings
	Types     []string `toml:"-"` // generate these types even without directives
	SchemaOut string   `toml:"-"` // output path override for a single schema file
	DryRun    bool     `toml:"-"` // report what would be written without writing
	Verbose   bool     `toml:"-"`
	Quiet     bool     `toml:"-"`
	NoColor   bool     `toml:"-"`
	Source    string   `toml:"-"` // file the config was loaded from, empty for defaults
}

// Features toggles optional capabilities
type Features struct {
	Generate bool `toml:"generate"`
}

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() *Config {
	return &Config{
		Prefix:     models.DefaultPrefix,
		Output:     parser.DefaultOutputName,
		Assertions: true,
		LogLevel:   logging.DefaultLevel,
		Features:   Features{Generate: true},
	}
}

// LoadConfig reads a TOML config file on top of the defaults. An empty path
// looks for mergeme.toml in dir; a missing default file is not an error.
func LoadConfig(path, dir string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = filepath.Join(dir, ConfigFileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && stderrors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, errors.WrapConfigurationError(path, "read", err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.WrapConfigurationError(path, "parse", describeTOMLError(err))
	}

	cfg.Source = path
	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapConfigurationError(path, "validate", err)
	}
	return cfg, nil
}

// Validate checks every setting
func (c *Config) Validate() error {
	if err := utils.IsDeclarableIdentifier("prefix")(c.Prefix); err != nil {
		return err
	}
	if err := utils.IsGoFileName("output")(c.Output); err != nil {
		return err
	}
	if err := utils.IsInRange("jobs", 0, MaxJobs)(c.Jobs); err != nil {
		return err
	}
	return utils.IsOneOf("log_level", append(logging.Levels, "warning")...)(c.LogLevel)
}

// JobCount returns the number of packages processed in parallel
func (c *Config) JobCount() int {
	if c.Jobs > 0 {
		return c.Jobs
	}
	return runtime.GOMAXPROCS(0)
}

// DiagnosticLevel maps --quiet and --verbose to a progress output level
func (c *Config) DiagnosticLevel() utils.DiagnosticLevel {
	switch {
	case c.Quiet:
		return utils.DiagnosticError
	case c.Verbose:
		return utils.DiagnosticVerbose
	default:
		return utils.DiagnosticInfo
	}
}

// describeTOMLError adds the row and column go-toml reports for decode errors
func describeTOMLError(err error) error {
	var strict *toml.StrictMissingError
	if stderrors.As(err, &strict) {
		return fmt.Errorf("unknown keys:\n%s", strict.String())
	}

	var decodeErr *toml.DecodeError
	if stderrors.As(err, &decodeErr) {
		row, col := decodeErr.Position()
		return fmt.Errorf("line %d, column %d: %w", row, col, err)
	}
	return err
}
