// Package config holds the invocation options and the optional
// .mddoctest.yaml configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/ezerfernandes/mddoctest/internal/discover"
	"github.com/ezerfernandes/mddoctest/internal/mdcode"
	"github.com/ezerfernandes/mddoctest/internal/runner"
	"gopkg.in/yaml.v3"
	"mvdan.cc/sh/v3/shell"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = ".mddoctest.yaml"

var (
	// ErrFileAndDir is returned when both a file and a directory are selected.
	ErrFileAndDir = errors.New("please choose either a file or a directory, not both")
	// ErrJSONAndSilent is returned when JSON output and silent mode are combined.
	ErrJSONAndSilent = errors.New("you cannot use the --json and --silent flags together")
	// ErrEmptyRuntime is returned when the runtime command expands to nothing.
	ErrEmptyRuntime = errors.New("runtime command is empty")
)

// Options are the per-invocation selections made on the command line.
type Options struct {
	File   string
	Dir    string
	JSON   bool
	Silent bool
}

// Validate rejects conflicting selections. When neither a file nor a
// directory is given, the current directory is swept.
func (o *Options) Validate() error {
	if len(o.File) != 0 && len(o.Dir) != 0 {
		return ErrFileAndDir
	}

	if o.JSON && o.Silent {
		return ErrJSONAndSilent
	}

	if len(o.File) == 0 && len(o.Dir) == 0 {
		o.Dir = "."
	}

	return nil
}

// Config represents the .mddoctest.yaml settings.
type Config struct {
	// Runtime is the command evaluating a block; the block text is appended
	// as its last argument. $VARS are expanded from the environment.
	Runtime string `yaml:"runtime"`

	// Languages are glob patterns of runnable info-string tags.
	Languages []string `yaml:"languages"`

	// Include are glob patterns of files checked in directory mode.
	Include []string `yaml:"include"`

	// Encoding of the runtime's stdout and stderr.
	Encoding string `yaml:"encoding"`

	// Jobs limits concurrently running blocks of one file (0 = unlimited).
	Jobs int `yaml:"jobs"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// Env holds extra KEY=VALUE pairs for spawned processes.
	Env []string `yaml:"env"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Runtime:   "node --eval",
		Languages: slices.Clone(mdcode.DefaultLanguages),
		Include:   slices.Clone(discover.DefaultInclude),
		Encoding:  runner.DefaultEncoding,
		Jobs:      0,
		LogLevel:  "warn",
	}
}

// LoadConfig loads configuration from path. A missing file yields the
// defaults; a malformed one is an error. Keys absent from the file keep
// their default values.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if cfg.Jobs < 0 {
		return nil, fmt.Errorf("invalid jobs %d in %s: must not be negative", cfg.Jobs, path)
	}

	return cfg, nil
}

// Command splits Runtime into argv, expanding $VARS with getenv.
func (c *Config) Command(getenv func(string) string) ([]string, error) {
	fields, err := shell.Fields(strings.TrimSpace(c.Runtime), getenv)
	if err != nil {
		return nil, fmt.Errorf("invalid runtime %q: %w", c.Runtime, err)
	}

	if len(fields) == 0 {
		return nil, ErrEmptyRuntime
	}

	return fields, nil
}
