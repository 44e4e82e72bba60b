package pathfinder

import (
	"fmt"

	"github.com/kilianp07/trajplan/core/arctime"
)

// Default settings applied by SetDefaults.
const (
	DefaultMeshStrategy = "lazy"
	DefaultLazyVelocity = 0.25
	DefaultWeight       = "euclidean"
)

// Config holds the planner tuning knobs. It is immutable once handed to New.
type Config struct {
	// MeshStrategy is "eager" or "lazy".
	MeshStrategy string `json:"mesh_strategy" yaml:"mesh_strategy"`
	// LazyVelocity is the creep speed of lazy stop edges as a fraction of the
	// request's max speed. Zero is replaced by DefaultLazyVelocity.
	LazyVelocity float64 `json:"lazy_velocity" yaml:"lazy_velocity"`
	// MinStopSeconds is the shortest creep phase a stop edge may have.
	MinStopSeconds float64 `json:"min_stop_seconds" yaml:"min_stop_seconds"`
	// MaxExpansions bounds mesh growth per call. Zero means unlimited.
	MaxExpansions int `json:"max_expansions" yaml:"max_expansions"`
	// FinishCandidates keeps only the earliest N Minimum-Time finish
	// candidates. Zero keeps all of them.
	FinishCandidates int `json:"finish_candidates" yaml:"finish_candidates"`
	// Weight is "euclidean" or "arc".
	Weight string `json:"weight" yaml:"weight"`
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.MeshStrategy == "" {
		c.MeshStrategy = DefaultMeshStrategy
	}
	if c.LazyVelocity == 0 {
		c.LazyVelocity = DefaultLazyVelocity
	}
	if c.Weight == "" {
		c.Weight = DefaultWeight
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if _, err := arctime.ParseMeshStrategy(c.MeshStrategy); err != nil {
		return err
	}
	if _, err := arctime.ParseWeight(c.Weight); err != nil {
		return err
	}
	if c.LazyVelocity < 0 || c.LazyVelocity >= 1 {
		return fmt.Errorf("lazy_velocity must be in [0,1), got %g", c.LazyVelocity)
	}
	if c.MinStopSeconds < 0 {
		return fmt.Errorf("min_stop_seconds must not be negative")
	}
	if c.MaxExpansions < 0 {
		return fmt.Errorf("max_expansions must not be negative")
	}
	if c.FinishCandidates < 0 {
		return fmt.Errorf("finish_candidates must not be negative")
	}
	return nil
}
