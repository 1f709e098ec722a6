package config

import (
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/vango-dev/weave/internal/errors"
)

const (
	// ConfigFileName is the name of the optional configuration file.
	ConfigFileName = "weave.json"

	// DefaultAddr is the default inspector listen address.
	DefaultAddr = ":7070"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "weave"

	// DefaultBenchItems is the default list size used by bench.
	DefaultBenchItems = 10000

	// DefaultBenchRounds is the default number of bench iterations.
	DefaultBenchRounds = 50
)

// Config is the CLI configuration. Values come from defaults, then
// weave.json, then WEAVE_* environment variables, then command flags.
type Config struct {
	// Addr is the inspector listen address.
	Addr string `json:"addr,omitempty" env:"WEAVE_ADDR"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Bench contains benchmark workload configuration.
	Bench BenchConfig `json:"bench,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `json:"level,omitempty" env:"WEAVE_LOG_LEVEL"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty" env:"WEAVE_LOG_FORMAT"`

	// File, when set, receives a JSON copy of every record.
	File string `json:"file,omitempty" env:"WEAVE_LOG_FILE"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes /metrics on the inspector.
	Enabled bool `json:"enabled,omitempty" env:"WEAVE_METRICS"`

	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty" env:"WEAVE_METRICS_NAMESPACE"`
}

// BenchConfig contains the bench workload size.
type BenchConfig struct {
	// Items is the number of list rows.
	Items int `json:"items,omitempty" env:"WEAVE_BENCH_ITEMS"`

	// Rounds is the number of measured updates.
	Rounds int `json:"rounds,omitempty" env:"WEAVE_BENCH_ROUNDS"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Addr: DefaultAddr,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
		Bench: BenchConfig{
			Items:  DefaultBenchItems,
			Rounds: DefaultBenchRounds,
		},
	}
}

// Load builds the configuration from the defaults, the weave.json in dir if
// there is one, and the environment.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	cfg, err := LoadFile(path)
	if err != nil {
		if !stderrors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		cfg = New()
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads configuration from the specified file path. Environment
// variables are not applied.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("W122").Wrap(err).WithDetail("Cannot read " + path)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("W122").
			Wrap(err).
			WithDetail("Failed to parse " + path).
			WithSuggestion("Check that weave.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// ApplyEnv overrides fields with the WEAVE_* variables that are set.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return errors.New("W120").Wrap(err)
	}
	c.applyDefaults()
	return c.Validate()
}

// Validate checks field values.
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("W120").
			WithDetail("Unknown log format " + c.Log.Format).
			WithSuggestion("Use WEAVE_LOG_FORMAT=text or WEAVE_LOG_FORMAT=json")
	}
	return nil
}

// Level parses Log.Level.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.Log.Level))); err != nil {
		return 0, errors.New("W121").
			Wrap(err).
			WithSuggestion("Use one of debug, info, warn or error")
	}
	return level, nil
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("W122").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("W122").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Bench.Items <= 0 {
		c.Bench.Items = DefaultBenchItems
	}
	if c.Bench.Rounds <= 0 {
		c.Bench.Rounds = DefaultBenchRounds
	}
}
