package config

import (
	"fmt"
	"os"

	"github.com/yairfalse/vigil/policy"
	"gopkg.in/yaml.v3"
)

// Config represents the main configuration
type Config struct {
	Version   string `yaml:"version"`
	Provider  string `yaml:"provider"`
	Workspace string `yaml:"workspace,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty"`

	// DataDir holds the snapshot store and audit history
	DataDir string `yaml:"data_dir,omitempty"`

	// Catalog is the path to a YAML rule catalog; the builtin checks
	// run when empty
	Catalog string `yaml:"catalog,omitempty"`

	// Output format: table or json
	Output string `yaml:"output,omitempty"`

	Thresholds policy.Thresholds `yaml:"thresholds,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Version:  "1",
		Provider: "asana",
		DataDir:  ".vigil",
		Output:   "table",
		Thresholds: policy.Thresholds{
			MaxAdmins: policy.DefaultMaxAdmins,
			StaleDays: policy.DefaultStaleDays,
		},
	}
}

// LoadConfig loads configuration from file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate ensures config has required fields
func (c *Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("version is required")
	}
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if c.Output != "" && c.Output != "table" && c.Output != "json" {
		return fmt.Errorf("output must be table or json, got %q", c.Output)
	}
	if c.Thresholds.MaxAdmins < 0 {
		return fmt.Errorf("thresholds.max_admins must not be negative")
	}
	if c.Thresholds.StaleDays < 0 {
		return fmt.Errorf("thresholds.stale_days must not be negative")
	}
	return nil
}
