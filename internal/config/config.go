// Package config loads the task table and runtime settings for leansched.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Task kinds understood by internal/tasks.
const (
	KindNoop   = "noop"
	KindLog    = "log"
	KindScript = "script"
)

// TaskSpec describes one row of the task table.
type TaskSpec struct {
	Name     string `yaml:"name"`
	Interval uint32 `yaml:"interval"` // 0 = continuous
	Kind     string `yaml:"kind"`
	Message  string `yaml:"message,omitempty"` // log kind
	Script   string `yaml:"script,omitempty"`  // script kind
}

// Config holds the settings for a leansched run.
type Config struct {
	TickPeriod   time.Duration `yaml:"tick_period"`   // cadence of the timer source
	PassInterval time.Duration `yaml:"pass_interval"` // main loop cadence, 0 = half the tick period
	LogLevel     string        `yaml:"log_level"`     // debug, info, warn, error
	LogFormat    string        `yaml:"log_format"`    // text, json
	DBPath       string        `yaml:"db_path"`       // run history database
	Listen       string        `yaml:"listen"`        // status API address, empty = disabled
	Tasks        []TaskSpec    `yaml:"tasks"`
}

// Default returns a config with no tasks and sensible defaults.
func Default() Config {
	return Config{
		TickPeriod: 10 * time.Millisecond,
		LogLevel:   "info",
		LogFormat:  "text",
		DBPath:     defaultDBPath(),
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "leansched.db"
	}
	return filepath.Join(home, ".leansched", "history.db")
}

// Load reads, parses and validates the YAML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default, applies environment overrides and
// validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	cfg.applyEnv()
	for i := range cfg.Tasks {
		if cfg.Tasks[i].Kind == "" {
			cfg.Tasks[i].Kind = KindNoop
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.LogLevel = getEnv("LEANSCHED_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LEANSCHED_LOG_FORMAT", c.LogFormat)
	c.DBPath = getEnv("LEANSCHED_DB", c.DBPath)
	c.Listen = getEnv("LEANSCHED_LISTEN", c.Listen)
}

func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// Validate checks the settings and every task spec.
func (c *Config) Validate() error {
	if c.TickPeriod <= 0 {
		return fmt.Errorf("%w: tick_period must be positive, got %s", ErrInvalidConfig, c.TickPeriod)
	}
	if c.PassInterval < 0 {
		return fmt.Errorf("%w: pass_interval must not be negative", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(c.Tasks))
	for i, t := range c.Tasks {
		if t.Name == "" {
			return fmt.Errorf("%w: tasks[%d]: name is required", ErrInvalidConfig, i)
		}
		if seen[t.Name] {
			return fmt.Errorf("%w: tasks[%d]: duplicate name %q", ErrInvalidConfig, i, t.Name)
		}
		seen[t.Name] = true

		switch t.Kind {
		case KindNoop, KindLog:
		case KindScript:
			if t.Script == "" {
				return fmt.Errorf("%w: task %q: script is required for kind %q", ErrInvalidConfig, t.Name, t.Kind)
			}
		default:
			return fmt.Errorf("%w: task %q: unknown kind %q", ErrInvalidConfig, t.Name, t.Kind)
		}
	}
	return nil
}

// EffectivePassInterval returns the main loop cadence, defaulting to half the
// tick period so every tick is observed by at least one pass.
func (c *Config) EffectivePassInterval() time.Duration {
	if c.PassInterval > 0 {
		return c.PassInterval
	}
	if half := c.TickPeriod / 2; half > 0 {
		return half
	}
	return c.TickPeriod
}
