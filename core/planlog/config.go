package planlog

import "fmt"

// Supported backends.
const (
	BackendNone   = ""
	BackendJSONL  = "jsonl"
	BackendSQLite = "sqlite"
)

// Config selects and parameterises the planning log.
type Config struct {
	Backend    string `json:"backend" yaml:"backend"`
	Path       string `json:"path" yaml:"path"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days"`
}

// SetDefaults fills zero values for the selected backend.
func (c *Config) SetDefaults() {
	switch c.Backend {
	case BackendJSONL:
		if c.Path == "" {
			c.Path = "logs/planning.jsonl"
		}
		if c.MaxSizeMB == 0 {
			c.MaxSizeMB = 10
		}
		if c.MaxBackups == 0 {
			c.MaxBackups = 3
		}
		if c.MaxAgeDays == 0 {
			c.MaxAgeDays = 7
		}
	case BackendSQLite:
		if c.Path == "" {
			c.Path = "planning.db"
		}
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendNone:
		return nil
	case BackendJSONL, BackendSQLite:
	default:
		return fmt.Errorf("unknown planlog backend %q", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("planlog path required for backend %s", c.Backend)
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("planlog rotation limits must not be negative")
	}
	return nil
}

// Open returns the store selected by cfg, or nil when the log is disabled.
func Open(cfg Config) (Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case BackendJSONL:
		s, err := NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendSQLite:
		s, err := NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, nil
}
