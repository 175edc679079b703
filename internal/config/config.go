package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration, loaded from a YAML file
type Config struct {
	Server   Server   `yaml:"server"`
	Storage  Storage  `yaml:"storage"`
	Database Database `yaml:"database"`
	Release  Release  `yaml:"release"`
	Signing  Signing  `yaml:"signing"`
}

// Server holds the HTTP boundary settings
type Server struct {
	Bind string `yaml:"bind"`
}

// Storage holds the repository root directory
type Storage struct {
	Root string `yaml:"root"`
}

// Database holds the catalog connection settings
type Database struct {
	URL string `yaml:"url"`
}

// Release holds the repository identity written into the Release file.
// The fields are free-form apart from Suite and Codename, which must
// each be a single word.
type Release struct {
	Origin     string   `yaml:"origin"`
	Label      string   `yaml:"label"`
	Suite      string   `yaml:"suite"`
	Codename   string   `yaml:"codename"`
	Components []string `yaml:"components"`
}

// Signing holds the optional repository signing key
type Signing struct {
	KeyPath    string `yaml:"key_path"`
	Passphrase string `yaml:"passphrase"`
}

// Load reads and validates a configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Bind == "" {
		c.Server.Bind = ":8080"
	}
	if c.Release.Codename == "" {
		c.Release.Codename = "stable"
	}
	if c.Release.Suite == "" {
		c.Release.Suite = c.Release.Codename
	}
	if len(c.Release.Components) == 0 {
		c.Release.Components = []string{"main"}
	}
	if c.Release.Origin == "" {
		c.Release.Origin = "Godsvagn Repository"
	}
	if c.Release.Label == "" {
		c.Release.Label = c.Release.Origin
	}
}

func (c *Config) validate() error {
	if c.Storage.Root == "" {
		return fmt.Errorf("storage.root is required")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	return nil
}
