package metrics

import (
	"fmt"

	"github.com/kilianp07/trajplan/core/factory"
)

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
	// PrometheusAddr enables the /metrics endpoint when non-empty.
	PrometheusAddr string `json:"prometheus_addr" yaml:"prometheus_addr"`
}

// SetDefaults installs a nop sink when none is configured.
func (c *Config) SetDefaults() {
	if len(c.Sinks) == 0 {
		c.Sinks = []factory.ModuleConfig{{Type: "nop"}}
	}
}

// Validate checks that every sink names a type.
func (c Config) Validate() error {
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("sink %d has no type", i)
		}
	}
	return nil
}
