// Package config loads Engine/NodePolicy/store/sweep defaults from a YAML
// file with environment-variable overrides, for cmd/wfctl and
// cmd/wfapprovald. The same keys can come from a YAML file or a WFGRAPH_
// prefixed environment variable; there is no flag binding.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EngineConfig mirrors the graph.Option defaults an Engine is constructed
// with.
type EngineConfig struct {
	MaxSteps           int           `mapstructure:"max_steps" yaml:"max_steps"`
	DefaultNodeTimeout time.Duration `mapstructure:"default_node_timeout" yaml:"default_node_timeout"`
	RunWallClockBudget time.Duration `mapstructure:"run_wall_clock_budget" yaml:"run_wall_clock_budget"`
}

// RetryConfig mirrors graph.RetryPolicy's defaults for RetryNode instances
// that don't set their own.
type RetryConfig struct {
	MaxRetries        int           `mapstructure:"max_retries" yaml:"max_retries"`
	InitialDelay      time.Duration `mapstructure:"initial_delay" yaml:"initial_delay"`
	BackoffMultiplier float64       `mapstructure:"backoff_multiplier" yaml:"backoff_multiplier"`
	Jitter            bool          `mapstructure:"jitter" yaml:"jitter"`
}

// LoggingConfig selects the emit.LogEmitter rendering mode and zerolog
// level.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // "json" or "text"
}

// StoreConfig selects and configures the graph/hitl/store backend.
type StoreConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"` // "memory", "sqlite", "mysql", "postgres"
	DSN     string `mapstructure:"dsn" yaml:"dsn"`
}

// SweepConfig configures graph/hitl/sweep.Sweeper.
type SweepConfig struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	Schedule string        `mapstructure:"schedule" yaml:"schedule"` // robfig/cron expression
	MaxAge   time.Duration `mapstructure:"max_age" yaml:"max_age"`
	Policy   string        `mapstructure:"policy" yaml:"policy"` // "strict" or "lenient-reject"
}

// NotifyConfig configures graph/hitl/notify's optional Redis fan-out
// bridge.
type NotifyConfig struct {
	RedisURL string `mapstructure:"redis_url" yaml:"redis_url"`
}

// Config is the root configuration tree, loaded by Load.
type Config struct {
	Engine  EngineConfig  `mapstructure:"engine" yaml:"engine"`
	Retry   RetryConfig   `mapstructure:"retry" yaml:"retry"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Sweep   SweepConfig   `mapstructure:"sweep" yaml:"sweep"`
	Notify  NotifyConfig  `mapstructure:"notify" yaml:"notify"`
}

func defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxSteps:           10000,
			DefaultNodeTimeout: 0,
			RunWallClockBudget: 0,
		},
		Retry: RetryConfig{
			MaxRetries:        3,
			InitialDelay:      time.Second,
			BackoffMultiplier: 2.0,
			Jitter:            false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Store: StoreConfig{
			Backend: "memory",
		},
		Sweep: SweepConfig{
			Enabled:  false,
			Schedule: "@every 1m",
			MaxAge:   30 * time.Minute,
			Policy:   "strict",
		},
	}
}

// Load reads configuration from configPath (a YAML file; may be empty to
// skip file loading) layered under built-in defaults, then applies
// environment-variable overrides prefixed WFGRAPH_ (e.g.
// WFGRAPH_ENGINE_MAX_STEPS, WFGRAPH_STORE_BACKEND), then validates.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("wfgraph")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: seeding defaults: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", configPath, err)
		}
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("config: decoding %s: %w", configPath, err)
		}
	}

	bindEnv(v)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// bindEnv registers every mapstructure key so viper.AutomaticEnv picks up
// the matching WFGRAPH_-prefixed variable (viper only binds keys it has
// seen, whether from a config file or an explicit BindEnv call).
func bindEnv(v *viper.Viper) {
	keys := []string{
		"engine.max_steps", "engine.default_node_timeout", "engine.run_wall_clock_budget",
		"retry.max_retries", "retry.initial_delay", "retry.backoff_multiplier", "retry.jitter",
		"logging.level", "logging.format",
		"store.backend", "store.dsn",
		"sweep.enabled", "sweep.schedule", "sweep.max_age", "sweep.policy",
		"notify.redis_url",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// Dump renders the effective configuration as YAML, in the same shape
// Load reads, so an operator can capture a running process's settings
// into a config file (wfapprovald's -print-config flag).
func (c *Config) Dump() (string, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("config: rendering YAML: %w", err)
	}
	return string(b), nil
}

// Validate checks cross-field invariants Load can't enforce per-field.
func (c *Config) Validate() error {
	if c.Engine.MaxSteps < 1 {
		return fmt.Errorf("engine.max_steps must be >= 1")
	}
	if c.Retry.MaxRetries < 1 {
		return fmt.Errorf("retry.max_retries must be >= 1")
	}
	if c.Retry.BackoffMultiplier <= 0 {
		return fmt.Errorf("retry.backoff_multiplier must be > 0")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid logging.format: %s (must be json or text)", c.Logging.Format)
	}

	validBackends := map[string]bool{"memory": true, "sqlite": true, "mysql": true, "postgres": true}
	if !validBackends[c.Store.Backend] {
		return fmt.Errorf("invalid store.backend: %s", c.Store.Backend)
	}
	if c.Store.Backend != "memory" && c.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required for backend %q", c.Store.Backend)
	}

	if c.Sweep.Enabled && (c.Sweep.Policy != "strict" && c.Sweep.Policy != "lenient-reject") {
		return fmt.Errorf("invalid sweep.policy: %s", c.Sweep.Policy)
	}

	return nil
}
