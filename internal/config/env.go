package config

import (
	"fmt"
	"os"
	"strings"
)

// loadFromEnv overrides config from environment variables.
func loadFromEnv(cfg *Config) {
	setString := func(env, field string, target *string) {
		if v := os.Getenv(env); v != "" {
			*target = v
			cfg.setSource(field, SourceEnv)
		}
	}
	setInt := func(env, field string, target *int) {
		if v := os.Getenv(env); v != "" {
			var i int
			if _, err := fmt.Sscanf(v, "%d", &i); err == nil {
				*target = i
				cfg.setSource(field, SourceEnv)
			}
		}
	}
	setBool := func(env, field string, target *bool) {
		if v := os.Getenv(env); v != "" {
			*target = boolFromString(v)
			cfg.setSource(field, SourceEnv)
		}
	}

	setString("TASKLIST_STORE", "store", &cfg.Store)
	setString("TASKLIST_DSN", "dsn", &cfg.DSN)
	setInt("TASKLIST_REFRESH_INTERVAL", "refresh_interval_seconds", &cfg.RefreshIntervalSeconds)
	setInt("TASKLIST_CLOCK_INTERVAL", "clock_interval_seconds", &cfg.ClockIntervalSeconds)
	setString("TASKLIST_HOOK", "hook_command", &cfg.HookCommand)

	// Logging configuration
	setString("TASKLIST_LOG_DIR", "log_dir", &cfg.LogDir)
	setString("TASKLIST_LOG_LEVEL", "log_level", &cfg.LogLevel)
	setString("TASKLIST_LOG_FORMAT", "log_format", &cfg.LogFormat)
	setBool("TASKLIST_LOG_TIMESTAMPS", "log_timestamps", &cfg.LogTimestamps)
	setBool("TASKLIST_LOG_CALLER", "log_caller", &cfg.LogCaller)
}

func boolFromString(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
