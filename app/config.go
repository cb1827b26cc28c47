package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tailored-agentic-units/memorable/memo"
	"github.com/tailored-agentic-units/memorable/rpc"
)

const defaultObserver = "slog"

// Config holds initialization parameters for every subsystem.
type Config struct {
	Store    memo.Config `json:"store" yaml:"store"`
	Server   rpc.Config  `json:"server" yaml:"server"`
	Observer string      `json:"observer,omitempty" yaml:"observer,omitempty"` // Registered observer name.
}

// DefaultConfig returns a Config with defaults for all subsystems.
func DefaultConfig() Config {
	return Config{
		Store:    memo.DefaultConfig(),
		Server:   rpc.DefaultConfig(),
		Observer: defaultObserver,
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge.
func (c *Config) Merge(source *Config) {
	c.Store.Merge(&source.Store)
	c.Server.Merge(&source.Server)

	if source.Observer != "" {
		c.Observer = source.Observer
	}
}

// LoadConfig reads a config file, merges it over the defaults and returns
// the result. Files ending in .yaml or .yml are parsed as YAML, anything
// else as JSON.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &loaded)
	default:
		err = json.Unmarshal(data, &loaded)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
