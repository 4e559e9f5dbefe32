// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads the harness configuration: connection parameters for
// the CLI under test, how to invoke it, and which suites to run.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "clirig.yml"

// Environment overrides for connection parameters and the CLI root.
const (
	EnvUsername = "CLIRIG_USERNAME"
	EnvPassword = "CLIRIG_PASSWORD"
	EnvHost     = "CLIRIG_HOST"
	EnvVCRMode  = "CLIRIG_VCR_MODE"
	EnvRoot     = "CLIRIG_ROOT"
)

// Config is the on-disk shape of clirig.yml.
type Config struct {
	Connection ConnectionConfig `yaml:"connection"`
	CLI        CLIConfig        `yaml:"cli"`
	Env        EnvConfig        `yaml:"env"`
	Suite      SuiteConfig      `yaml:"suite"`
}

// ConnectionConfig holds the parameters exposed to steps.
type ConnectionConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	VCRMode  string `yaml:"vcr_mode"`
}

// CLIConfig describes the CLI under test.
type CLIConfig struct {
	// Root is the directory the binary path and "I am in directory" resolve against.
	Root string `yaml:"root"`
	// Name is the token replaced in step commands, e.g. "terminus".
	Name string `yaml:"name"`
	// Bin is the binary path relative to Root.
	Bin             string        `yaml:"bin"`
	Shell           string        `yaml:"shell"`
	Timeout         time.Duration `yaml:"timeout"`
	RequireCassette bool          `yaml:"require_cassette"`
	SeparateStderr  bool          `yaml:"separate_stderr"`
}

// EnvConfig names the variables injected into the child process.
type EnvConfig struct {
	Cassette string `yaml:"cassette"`
	Mode     string `yaml:"mode"`
	Host     string `yaml:"host"`
}

// SuiteConfig selects and formats feature runs.
type SuiteConfig struct {
	Paths         []string `yaml:"paths"`
	Tags          string   `yaml:"tags"`
	Format        string   `yaml:"format"`
	StateDir      string   `yaml:"state_dir"`
	Strict        bool     `yaml:"strict"`
	StopOnFailure bool     `yaml:"stop_on_failure"`
}

var validFormats = map[string]bool{
	"pretty":   true,
	"progress": true,
	"cucumber": true,
	"junit":    true,
	"events":   true,
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		CLI: CLIConfig{
			Root:    ".",
			Name:    "terminus",
			Bin:     "bin/terminus",
			Shell:   "sh",
			Timeout: 2 * time.Minute,
		},
		Env: EnvConfig{
			Cassette: "VCR_CASSETTE",
			Mode:     "VCR_MODE",
			Host:     "TERMINUS_HOST",
		},
		Suite: SuiteConfig{
			Paths:    []string{"features"},
			Format:   "pretty",
			StateDir: ".clirig/run",
		},
	}
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error.
//
// Relative cli.root, suite.state_dir and suite.paths are anchored at the
// directory of path. The root is then made absolute so the binary path stays
// valid after a scenario changes directory.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	cfg.anchor(filepath.Dir(path))

	cfg.applyEnv(os.LookupEnv)

	root, err := filepath.Abs(cfg.CLI.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving cli.root %s: %w", cfg.CLI.Root, err)
	}
	cfg.CLI.Root = root

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) anchor(base string) {
	c.CLI.Root = anchorPath(base, c.CLI.Root)
	c.Suite.StateDir = anchorPath(base, c.Suite.StateDir)
	for i, p := range c.Suite.Paths {
		c.Suite.Paths[i] = anchorPath(base, p)
	}
}

func anchorPath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	overrides := []struct {
		env string
		dst *string
	}{
		{EnvUsername, &c.Connection.Username},
		{EnvPassword, &c.Connection.Password},
		{EnvHost, &c.Connection.Host},
		{EnvVCRMode, &c.Connection.VCRMode},
		{EnvRoot, &c.CLI.Root},
	}
	for _, o := range overrides {
		if v, ok := lookup(o.env); ok && v != "" {
			*o.dst = v
		}
	}
}

// Validate checks the fields the harness cannot work without.
func (c *Config) Validate() error {
	if c.CLI.Name == "" {
		return fmt.Errorf("cli.name must not be empty")
	}
	if c.CLI.Bin == "" {
		return fmt.Errorf("cli.bin must not be empty")
	}
	if c.CLI.Timeout < 0 {
		return fmt.Errorf("cli.timeout must not be negative: %s", c.CLI.Timeout)
	}
	if c.Env.Cassette == "" || c.Env.Mode == "" || c.Env.Host == "" {
		return fmt.Errorf("env variable names must not be empty")
	}
	if !validFormats[c.Suite.Format] {
		return fmt.Errorf("unknown suite.format %q", c.Suite.Format)
	}
	return nil
}

// ConnectionInfo builds the immutable connection bundle.
func (c *Config) ConnectionInfo() Connection {
	return NewConnection(map[string]string{
		KeyUsername: c.Connection.Username,
		KeyPassword: c.Connection.Password,
		KeyHost:     c.Connection.Host,
		KeyVCRMode:  c.Connection.VCRMode,
	})
}
