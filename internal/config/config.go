// Package config loads the ventas configuration from a YAML file, a .env file and
// VENTAS_* environment variables.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete application configuration.
type Config struct {
	Server    Server    `yaml:"server"`
	Database  Database  `yaml:"database"`
	Logging   Logging   `yaml:"logging"`
	Hydration Hydration `yaml:"hydration"`
	Session   Session   `yaml:"session"`
	Metrics   Metrics   `yaml:"metrics"`
	App       App       `yaml:"app"`
}

type Server struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type Database struct {
	// Path of the SQLite file. ":memory:" keeps everything in memory.
	Path string `yaml:"path"`
}

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

type Logging struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// SlogLevel maps the configured level onto slog.
func (l Logging) SlogLevel() slog.Level {
	switch l.Level {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type Hydration struct {
	MountPath     string        `yaml:"mount_path"`
	GuardTTL      time.Duration `yaml:"guard_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type Session struct {
	CookieName string        `yaml:"cookie_name"`
	Lifetime   time.Duration `yaml:"lifetime"`
	Secure     bool          `yaml:"secure"`
}

type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type App struct {
	Name string `yaml:"name"`
	// Locale is a BCP 47 tag used for number and date formatting.
	Locale string `yaml:"locale"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads path (optional), applies .env and VENTAS_* overrides, defaults and validation.
// An existing process environment always wins over .env values.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}
	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	setDefault(&cfg.Server.Addr, ":8080")
	setDefault(&cfg.Server.ReadTimeout, 15*time.Second)
	setDefault(&cfg.Server.WriteTimeout, 30*time.Second)
	setDefault(&cfg.Server.ShutdownTimeout, 10*time.Second)
	setDefault(&cfg.Database.Path, "ventas.db")
	setDefault(&cfg.Logging.Level, LogLevelInfo)
	setDefault(&cfg.Logging.Format, LogFormatText)
	setDefault(&cfg.Hydration.MountPath, "/_hydrate")
	setDefault(&cfg.Hydration.GuardTTL, 10*time.Minute)
	setDefault(&cfg.Hydration.SweepInterval, time.Minute)
	setDefault(&cfg.Session.CookieName, "ventas_session")
	setDefault(&cfg.Session.Lifetime, 12*time.Hour)
	setDefault(&cfg.Metrics.Path, "/metrics")
	setDefault(&cfg.App.Name, "Ventas")
	setDefault(&cfg.App.Locale, "es-GT")
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}

// envOverrides lists the VENTAS_* variables and the field each one sets.
var envOverrides = map[string]func(cfg *Config, v string) error{
	"VENTAS_ADDR": func(cfg *Config, v string) error {
		cfg.Server.Addr = v
		return nil
	},
	"VENTAS_DB": func(cfg *Config, v string) error {
		cfg.Database.Path = v
		return nil
	},
	"VENTAS_LOG_LEVEL": func(cfg *Config, v string) error {
		cfg.Logging.Level = LogLevel(strings.ToLower(v))
		return nil
	},
	"VENTAS_LOG_FORMAT": func(cfg *Config, v string) error {
		cfg.Logging.Format = LogFormat(strings.ToLower(v))
		return nil
	},
	"VENTAS_LOCALE": func(cfg *Config, v string) error {
		cfg.App.Locale = v
		return nil
	},
	"VENTAS_SESSION_SECURE": func(cfg *Config, v string) error {
		b, err := strconv.ParseBool(v)
		cfg.Session.Secure = b
		return err
	},
	"VENTAS_METRICS_ENABLED": func(cfg *Config, v string) error {
		b, err := strconv.ParseBool(v)
		cfg.Metrics.Enabled = b
		return err
	},
	"VENTAS_GUARD_TTL": func(cfg *Config, v string) error {
		d, err := time.ParseDuration(v)
		cfg.Hydration.GuardTTL = d
		return err
	},
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	for key, set := range envOverrides {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		if err := set(cfg, v); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return fmt.Errorf("invalid logging level: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case LogFormatJSON, LogFormatText:
	default:
		return fmt.Errorf("invalid logging format: %q", c.Logging.Format)
	}
	if !strings.HasPrefix(c.Hydration.MountPath, "/") {
		return fmt.Errorf("hydration mount_path must start with /: %q", c.Hydration.MountPath)
	}
	if c.Hydration.GuardTTL < time.Second {
		return fmt.Errorf("hydration guard_ttl too short: %s", c.Hydration.GuardTTL)
	}
	if c.Hydration.SweepInterval <= 0 {
		return fmt.Errorf("hydration sweep_interval must be positive: %s", c.Hydration.SweepInterval)
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics path must start with /: %q", c.Metrics.Path)
	}
	return nil
}

// NewLogger builds the slog logger described by the logging section.
func (l Logging) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if l.Format == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
