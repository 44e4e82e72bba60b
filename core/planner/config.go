package planner

import (
	"fmt"
	"runtime"
)

// Config controls batch evaluation of candidates.
type Config struct {
	// Workers bounds how many planning attempts run at once.
	Workers int `json:"workers" yaml:"workers"`
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}
