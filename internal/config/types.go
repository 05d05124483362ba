package config

import (
	"time"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// Default values.
const (
	DefaultStore           = "sqlite"
	DefaultDSN             = "~/.tasklist/tasks.db"
	DefaultLogDir          = "~/.tasklist/logs"
	DefaultRefreshInterval = 1
	DefaultClockInterval   = 1
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
)

// Config holds the full configuration for tasklist.
type Config struct {
	// Storage backend: memory, sqlite or postgres
	Store string `toml:"store"`
	// SQLite file path or PostgreSQL connection string
	DSN string `toml:"dsn"`

	// Polling
	RefreshIntervalSeconds int `toml:"refresh_interval_seconds"`
	ClockIntervalSeconds   int `toml:"clock_interval_seconds"`

	// Command run after each create, delete or complete
	HookCommand string `toml:"hook_command"`

	// Logging configuration
	LogDir        string `toml:"log_dir"`
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Config file that was applied last (computed)
	ConfigFile string `toml:"-"`

	// Sources records where each field was set (computed)
	Sources map[string]ConfigSource `toml:"-"`
}

// RefreshInterval returns the list polling period.
func (c *Config) RefreshInterval() time.Duration {
	return secondsOrDefault(c.RefreshIntervalSeconds, DefaultRefreshInterval)
}

// ClockInterval returns the clock label update period.
func (c *Config) ClockInterval() time.Duration {
	return secondsOrDefault(c.ClockIntervalSeconds, DefaultClockInterval)
}

// Source returns where field was set, or SourceDefault.
func (c *Config) Source(field string) ConfigSource {
	if c.Sources == nil {
		return SourceDefault
	}
	if s, ok := c.Sources[field]; ok {
		return s
	}
	return SourceDefault
}

func (c *Config) setSource(field string, source ConfigSource) {
	if c.Sources == nil {
		c.Sources = make(map[string]ConfigSource)
	}
	c.Sources[field] = source
}

func secondsOrDefault(seconds, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}
