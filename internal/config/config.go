// Package config loads the console's YAML configuration file with
// environment overrides for deployment.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Log       LogConfig       `yaml:"log"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Engine    EngineConfig    `yaml:"engine"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"` // Listen address, e.g. ":8080".
}

// DatabaseConfig configures the metadata database.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"` // PostgreSQL or SQLite DSN.
}

// RedisConfig configures the optional Redis cache backend. When Addr is
// empty the in-memory cache is used instead.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LogConfig configures logrus output and rotation.
type LogConfig struct {
	Level      string `yaml:"level"`       // debug, info, warn, error.
	File       string `yaml:"file"`        // Log file path; empty logs to stdout only.
	MaxSizeMB  int    `yaml:"max_size_mb"` // Rotate after this size.
	MaxBackups int    `yaml:"max_backups"` // Rotated files to keep.
	MaxAgeDays int    `yaml:"max_age_days"`
}

// SchedulerConfig configures the cron scheduler.
type SchedulerConfig struct {
	Enabled bool `yaml:"enabled"`
}

// EngineConfig points at the execution engine: SubmitURL receives job
// config documents, StatusURL serves per-job detail for the instance
// monitor. Both empty means engineless local mode.
type EngineConfig struct {
	SubmitURL string `yaml:"submit_url"`
	StatusURL string `yaml:"status_url"`
}

// Default returns the configuration used when no file is present: SQLite in
// the working directory, scheduler on, info logging to stdout.
func Default() Config {
	return Config{
		Server:    ServerConfig{Addr: ":8080"},
		Database:  DatabaseConfig{DSN: "file:link.db"},
		Log:       LogConfig{Level: "info", MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 28},
		Scheduler: SchedulerConfig{Enabled: true},
	}
}

// Load reads the YAML config at path, applying defaults for missing values
// and environment overrides (LINK_SERVER_ADDR, LINK_DATABASE_DSN,
// LINK_REDIS_ADDR, LINK_LOG_LEVEL) on top. A missing file is not an error;
// defaults plus environment are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, errRead := os.ReadFile(path)
		switch {
		case errRead == nil:
			if errParse := yaml.Unmarshal(data, &cfg); errParse != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, errParse)
			}
		case os.IsNotExist(errRead):
			// fall through to defaults
		default:
			return Config{}, fmt.Errorf("config: read %s: %w", path, errRead)
		}
	}

	applyEnv(&cfg)

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return Config{}, fmt.Errorf("config: database dsn is required")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LINK_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LINK_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("LINK_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("LINK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}
