package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aqasim81/migration-runner/internal/tracker"
)

// Default values for configuration fields.
const (
	DefaultMigrationsDir    = "./migrations"
	DefaultTrackingTable    = tracker.DefaultTable
	DefaultLockTimeout      = 5 * time.Second
	DefaultStatementTimeout = 30 * time.Second
	DefaultTargetPGVersion  = 14
	DefaultFormat           = "text"
	DefaultLogFormat        = "text"
	DefaultMetricsJob       = "migrate"
)

// Config holds the application configuration loaded from file, environment, and flags.
type Config struct {
	DatabaseURL      string
	MigrationsDir    string
	TrackingTable    string
	LockTimeout      time.Duration
	StatementTimeout time.Duration
	LockWait         time.Duration
	ConnectRetries   int
	AllowOutOfOrder  bool
	TargetPGVersion  int
	Format           string
	LogFormat        string
	MetricsPushURL   string
	MetricsJob       string
}

// yamlConfig is the raw YAML file representation with string durations.
type yamlConfig struct {
	DatabaseURL      string `yaml:"database_url"`
	MigrationsDir    string `yaml:"migrations_dir"`
	TrackingTable    string `yaml:"tracking_table"`
	LockTimeout      string `yaml:"lock_timeout"`
	StatementTimeout string `yaml:"statement_timeout"`
	LockWait         string `yaml:"lock_wait"`
	ConnectRetries   int    `yaml:"connect_retries"`
	AllowOutOfOrder  bool   `yaml:"allow_out_of_order"`
	TargetPGVersion  int    `yaml:"target_pg_version"`
	Format           string `yaml:"format"`
	LogFormat        string `yaml:"log_format"`
	MetricsPushURL   string `yaml:"metrics_push_url"`
	MetricsJob       string `yaml:"metrics_job"`
}

// New returns a Config populated with default values.
func New() *Config {
	return &Config{
		MigrationsDir:    DefaultMigrationsDir,
		TrackingTable:    DefaultTrackingTable,
		LockTimeout:      DefaultLockTimeout,
		StatementTimeout: DefaultStatementTimeout,
		TargetPGVersion:  DefaultTargetPGVersion,
		Format:           DefaultFormat,
		LogFormat:        DefaultLogFormat,
		MetricsJob:       DefaultMetricsJob,
	}
}

// Load reads a YAML configuration file and returns a Config.
// If allowMissing is true and the file does not exist, defaults are returned.
func Load(path string, allowMissing bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && allowMissing {
			return New(), nil
		}

		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return fromYAML(&raw)
}

// fromYAML converts the raw YAML representation to a Config with defaults applied.
func fromYAML(raw *yamlConfig) (*Config, error) {
	cfg := New()

	setString(&cfg.DatabaseURL, raw.DatabaseURL)
	setString(&cfg.MigrationsDir, raw.MigrationsDir)
	setString(&cfg.TrackingTable, raw.TrackingTable)
	setString(&cfg.Format, raw.Format)
	setString(&cfg.LogFormat, raw.LogFormat)
	setString(&cfg.MetricsPushURL, raw.MetricsPushURL)
	setString(&cfg.MetricsJob, raw.MetricsJob)

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"lock_timeout", raw.LockTimeout, &cfg.LockTimeout},
		{"statement_timeout", raw.StatementTimeout, &cfg.StatementTimeout},
		{"lock_wait", raw.LockWait, &cfg.LockWait},
	}

	for _, d := range durations {
		if d.raw == "" {
			continue
		}

		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return nil, fmt.Errorf("parsing %s %q: %w", d.key, d.raw, err)
		}

		*d.dst = parsed
	}

	if raw.ConnectRetries != 0 {
		cfg.ConnectRetries = raw.ConnectRetries
	}

	if raw.TargetPGVersion != 0 {
		cfg.TargetPGVersion = raw.TargetPGVersion
	}

	cfg.AllowOutOfOrder = raw.AllowOutOfOrder

	return cfg, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// MergeEnv overrides config fields from MIGRATE_* environment variables.
// DATABASE_URL is used when MIGRATE_DATABASE_URL is unset. Unparseable
// values are ignored.
func MergeEnv(cfg *Config) {
	switch {
	case os.Getenv("MIGRATE_DATABASE_URL") != "":
		cfg.DatabaseURL = os.Getenv("MIGRATE_DATABASE_URL")
	case os.Getenv("DATABASE_URL") != "":
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	setString(&cfg.MigrationsDir, os.Getenv("MIGRATE_MIGRATIONS_DIR"))
	setString(&cfg.TrackingTable, os.Getenv("MIGRATE_TRACKING_TABLE"))
	setString(&cfg.LogFormat, os.Getenv("MIGRATE_LOG_FORMAT"))
	setString(&cfg.MetricsPushURL, os.Getenv("MIGRATE_METRICS_PUSH_URL"))

	envDuration("MIGRATE_LOCK_TIMEOUT", &cfg.LockTimeout)
	envDuration("MIGRATE_STATEMENT_TIMEOUT", &cfg.StatementTimeout)
	envDuration("MIGRATE_LOCK_WAIT", &cfg.LockWait)

	if v := os.Getenv("MIGRATE_CONNECT_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ConnectRetries = n
		}
	}

	if v := os.Getenv("MIGRATE_ALLOW_OUT_OF_ORDER"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AllowOutOfOrder = b
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	if err := tracker.ValidateTableName(c.TrackingTable); err != nil {
		return err
	}

	for name, d := range map[string]time.Duration{
		"lock_timeout":      c.LockTimeout,
		"statement_timeout": c.StatementTimeout,
		"lock_wait":         c.LockWait,
	} {
		if d < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, name)
		}
	}

	if c.ConnectRetries < 0 {
		return fmt.Errorf("%w: connect_retries must not be negative", ErrInvalidConfig)
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}

	return nil
}
