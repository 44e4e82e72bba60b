// Package config loads the trajplan configuration file.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/trajplan/core/metrics"
	"github.com/kilianp07/trajplan/core/pathfinder"
	"github.com/kilianp07/trajplan/core/planlog"
	"github.com/kilianp07/trajplan/core/planner"
	"github.com/kilianp07/trajplan/infra/mqtt"
)

type Config struct {
	Planner pathfinder.Config `json:"planner"`
	Batch   planner.Config    `json:"batch"`
	Metrics metrics.Config    `json:"metrics"`
	MQTT    mqtt.Config       `json:"mqtt"`
	PlanLog planlog.Config    `json:"planlog"`
}

// Default returns a configuration with every section defaulted.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Planner.SetDefaults()
	c.Batch.SetDefaults()
	c.Metrics.SetDefaults()
	c.MQTT.SetDefaults()
	c.PlanLog.SetDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"planner", c.Planner.Validate},
		{"batch", c.Batch.Validate},
		{"metrics", c.Metrics.Validate},
		{"mqtt", c.MQTT.Validate},
		{"planlog", c.PlanLog.Validate},
	}
	for _, ch := range checks {
		if err := ch.fn(); err != nil {
			return fmt.Errorf("%s: %w", ch.name, err)
		}
	}
	return nil
}

// Load reads a YAML or JSON file, applies K_ environment overrides
// (K_PLANNER__MESH_STRATEGY sets planner.mesh_strategy), then defaults and
// validates the result. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
