// Package config loads the optional rewrite.yaml defaults file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath is the environment variable naming the config file when no
// --config flag is given.
const EnvConfigPath = "REWRITE_CONFIG"

// Config is the optional defaults document. Every field has a flag
// counterpart; flags win over the file.
type Config struct {
	Scratch Scratch `yaml:"scratch,omitempty"`
	Env     Env     `yaml:"env,omitempty"`
	Shell   string  `yaml:"shell,omitempty"`
	Verbose bool    `yaml:"verbose,omitempty"`
}

// Scratch selects the default scratch-file directory. At most one of the
// three fields may be set.
type Scratch struct {
	Dir    string `yaml:"dir,omitempty"`
	UseTmp bool   `yaml:"use_tmp,omitempty"`
	UseCwd bool   `yaml:"use_cwd,omitempty"`
}

// Env controls the child environment defaults.
type Env struct {
	// Inject defaults to true when absent, which is why it is a pointer.
	Inject *bool  `yaml:"inject,omitempty"`
	File   string `yaml:"file,omitempty"`
}

// Default returns the built-in configuration used when no file applies.
func Default() *Config {
	return &Config{}
}

// InjectEnabled reports the env.inject setting, defaulting to true.
func (c *Config) InjectEnabled() bool {
	return c.Env.Inject == nil || *c.Env.Inject
}

// Locate resolves the config file path: the explicit flag value, then
// $REWRITE_CONFIG, then rewrite.yaml under the user config directory. An
// empty result means no location is even worth probing.
func Locate(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "rewrite", "rewrite.yaml")
}

// Load reads and validates the config file at path. When explicit is false
// the path came from probing, and a missing file just means defaults; an
// explicitly named file must exist.
func Load(path string, explicit bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a raw YAML config document.
func Parse(data []byte) (*Config, error) {
	violations, err := ValidateDocument(data)
	if err != nil {
		return nil, err
	}
	if len(violations) > 0 {
		return nil, fmt.Errorf("invalid config: %s", strings.Join(violations, "; "))
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// check enforces the cross-field rules the schema cannot express.
func (c *Config) check() error {
	set := 0
	if c.Scratch.Dir != "" {
		set++
	}
	if c.Scratch.UseTmp {
		set++
	}
	if c.Scratch.UseCwd {
		set++
	}
	if set > 1 {
		return fmt.Errorf("scratch.dir, scratch.use_tmp and scratch.use_cwd are mutually exclusive")
	}
	return nil
}
