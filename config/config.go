// Package config provides configuration management for hostadm.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/victoralfred/gowritter/safepath"
	"gopkg.in/yaml.v3"

	"github.com/victoralfred/hostadm/observability"
	"github.com/victoralfred/hostadm/privilege"
	"github.com/victoralfred/hostadm/resilience"
)

// Config is the main configuration for hostadm.
type Config struct {
	RateLimiter resilience.RateLimiterConfig
	Telemetry   observability.TelemetryConfig
	Audit       observability.AuditConfig
	Privilege   privilege.Config
	Executor    ExecutorConfig

	// CatalogBasePath and CatalogPath locate the tool override file.
	CatalogBasePath string
	CatalogPath     string
}

// ExecutorConfig configures the executor.
type ExecutorConfig struct {
	DefaultTimeout time.Duration
	SudoPath       string
	EnableMetrics  bool
	EnableTracing  bool
	EnableAudit    bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Executor: ExecutorConfig{
			DefaultTimeout: 30 * time.Second,
			SudoPath:       "/usr/bin/sudo",
			EnableMetrics:  true,
			EnableTracing:  true,
			EnableAudit:    true,
		},
		RateLimiter:     resilience.DefaultRateLimiterConfig(),
		Telemetry:       observability.DefaultTelemetryConfig(),
		Audit:           observability.DefaultAuditConfig(),
		Privilege:       *privilege.DefaultConfig(),
		CatalogBasePath: "/etc/hostadm",
		CatalogPath:     "tools.yaml",
	}
}

// DevelopmentConfig returns configuration suitable for a scratch
// machine: generous rate limits and full output capture in the audit
// log.
func DevelopmentConfig() Config {
	cfg := DefaultConfig()
	cfg.Executor.DefaultTimeout = 60 * time.Second
	cfg.RateLimiter.DefaultLimit = 1000
	cfg.RateLimiter.DefaultBurst = 2000
	cfg.Audit.LogLevel = observability.AuditLogAll
	cfg.Audit.IncludeOutput = true
	return cfg
}

// ProductionConfig returns configuration suitable for production hosts.
func ProductionConfig() Config {
	cfg := DefaultConfig()
	cfg.Executor.DefaultTimeout = 30 * time.Second
	cfg.RateLimiter.DefaultLimit = 5
	cfg.RateLimiter.DefaultBurst = 10
	cfg.Audit.LogLevel = observability.AuditLogAll
	cfg.Audit.IncludeOutput = false
	return cfg
}

// RestrictedConfig returns highly restrictive configuration.
func RestrictedConfig() Config {
	cfg := ProductionConfig()
	cfg.RateLimiter.DefaultLimit = 1
	cfg.RateLimiter.DefaultBurst = 3
	cfg.Executor.DefaultTimeout = 15 * time.Second
	return cfg
}

// Validate normalizes the configuration. Out-of-range values are
// clamped to workable defaults rather than rejected.
func (c *Config) Validate() error {
	if c.Executor.DefaultTimeout <= 0 {
		c.Executor.DefaultTimeout = 30 * time.Second
	}

	if c.Executor.SudoPath == "" {
		c.Executor.SudoPath = "/usr/bin/sudo"
	}

	if c.Privilege.SudoPath == "" {
		c.Privilege.SudoPath = c.Executor.SudoPath
	}

	if c.RateLimiter.DefaultLimit <= 0 {
		c.RateLimiter.DefaultLimit = 10
	}

	if c.RateLimiter.DefaultBurst <= 0 {
		c.RateLimiter.DefaultBurst = 20
	}

	if c.Audit.MaxOutputSize <= 0 {
		c.Audit.MaxOutputSize = 1024
	}

	return nil
}

// fileConfig is the YAML form of a hostadm configuration file. Only
// listed keys override the preset; everything else keeps its default.
type fileConfig struct {
	Timeout     string `yaml:"timeout"`
	SudoPath    string `yaml:"sudo_path"`
	CatalogFile string `yaml:"catalog_file"`

	Audit struct {
		Enabled       *bool  `yaml:"enabled"`
		LogLevel      string `yaml:"log_level"`
		BasePath      string `yaml:"base_path"`
		FilePath      string `yaml:"file_path"`
		IncludeOutput *bool  `yaml:"include_output"`
	} `yaml:"audit"`

	RateLimit struct {
		DefaultLimit *float64 `yaml:"default_limit"`
		DefaultBurst *int     `yaml:"default_burst"`
	} `yaml:"rate_limit"`

	Telemetry struct {
		EnableTracing *bool  `yaml:"enable_tracing"`
		EnableMetrics *bool  `yaml:"enable_metrics"`
		Environment   string `yaml:"environment"`
	} `yaml:"telemetry"`

	Privilege struct {
		SudoGroups []string `yaml:"sudo_groups"`
	} `yaml:"privilege"`
}

// Load reads a YAML configuration file and overlays it on the default
// configuration.
func Load(path string) (Config, error) {
	dir, file := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	sp, err := safepath.New(filepath.Clean(dir))
	if err != nil {
		return Config{}, fmt.Errorf("opening config directory: %w", err)
	}

	data, err := sp.ReadFile(file)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse overlays YAML configuration data on the default configuration.
func Parse(data []byte) (Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("parsing config YAML: %w", err)
	}

	cfg := DefaultConfig()
	if err := fc.apply(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (fc *fileConfig) apply(cfg *Config) error {
	if fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", fc.Timeout, err)
		}
		cfg.Executor.DefaultTimeout = d
	}

	if fc.SudoPath != "" {
		cfg.Executor.SudoPath = fc.SudoPath
		cfg.Privilege.SudoPath = fc.SudoPath
	}

	if fc.CatalogFile != "" {
		dir, file := filepath.Split(fc.CatalogFile)
		if dir == "" {
			dir = "."
		}
		cfg.CatalogBasePath = filepath.Clean(dir)
		cfg.CatalogPath = file
	}

	if fc.Audit.Enabled != nil {
		cfg.Audit.Enabled = *fc.Audit.Enabled
		cfg.Executor.EnableAudit = *fc.Audit.Enabled
	}
	if fc.Audit.LogLevel != "" {
		switch level := observability.AuditLogLevel(fc.Audit.LogLevel); level {
		case observability.AuditLogAll, observability.AuditLogFailures, observability.AuditLogDenials:
			cfg.Audit.LogLevel = level
		default:
			return fmt.Errorf("invalid audit log level %q (valid options: all, failures, denials)", fc.Audit.LogLevel)
		}
	}
	if fc.Audit.BasePath != "" {
		cfg.Audit.BasePath = fc.Audit.BasePath
	}
	if fc.Audit.FilePath != "" {
		cfg.Audit.FilePath = fc.Audit.FilePath
	}
	if fc.Audit.IncludeOutput != nil {
		cfg.Audit.IncludeOutput = *fc.Audit.IncludeOutput
	}

	if fc.RateLimit.DefaultLimit != nil {
		cfg.RateLimiter.DefaultLimit = *fc.RateLimit.DefaultLimit
	}
	if fc.RateLimit.DefaultBurst != nil {
		cfg.RateLimiter.DefaultBurst = *fc.RateLimit.DefaultBurst
	}

	if fc.Telemetry.EnableTracing != nil {
		cfg.Telemetry.EnableTracing = *fc.Telemetry.EnableTracing
		cfg.Executor.EnableTracing = *fc.Telemetry.EnableTracing
	}
	if fc.Telemetry.EnableMetrics != nil {
		cfg.Telemetry.EnableMetrics = *fc.Telemetry.EnableMetrics
		cfg.Executor.EnableMetrics = *fc.Telemetry.EnableMetrics
	}
	if fc.Telemetry.Environment != "" {
		cfg.Telemetry.Environment = fc.Telemetry.Environment
	}

	if len(fc.Privilege.SudoGroups) > 0 {
		cfg.Privilege.SudoGroups = fc.Privilege.SudoGroups
	}

	return nil
}
