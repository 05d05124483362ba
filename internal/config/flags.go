package config

import (
	"flag"

	"github.com/nibzard/tasklist/internal/store"
)

// flagFields maps flag names to the config keys they set.
var flagFields = map[string]string{
	"store":            "store",
	"volatile":         "store",
	"dsn":              "dsn",
	"refresh-interval": "refresh_interval_seconds",
	"clock-interval":   "clock_interval_seconds",
	"hook":             "hook_command",
	"log-dir":          "log_dir",
	"log-level":        "log_level",
	"log-format":       "log_format",
	"log-timestamps":   "log_timestamps",
	"log-caller":       "log_caller",
}

// parseFlags defines and parses CLI flags.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string) error {
	if fs == nil {
		fs = flag.NewFlagSet("tasklist", flag.ContinueOnError)
	}

	// Storage
	fs.StringVar(&cfg.Store, "store", cfg.Store, "Store backend (memory|sqlite|postgres)")
	volatile := fs.Bool("volatile", false, "Keep tasks in memory only (same as -store memory)")
	fs.StringVar(&cfg.DSN, "dsn", cfg.DSN, "SQLite file path or PostgreSQL connection string")

	// Polling
	fs.IntVar(&cfg.RefreshIntervalSeconds, "refresh-interval", cfg.RefreshIntervalSeconds, "Task list refresh interval (seconds)")
	fs.IntVar(&cfg.ClockIntervalSeconds, "clock-interval", cfg.ClockIntervalSeconds, "Clock update interval (seconds)")

	// Hooks
	fs.StringVar(&cfg.HookCommand, "hook", cfg.HookCommand, "Command to run after each task change")

	// Logging
	fs.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Log directory")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	fs.BoolVar(&cfg.LogTimestamps, "log-timestamps", cfg.LogTimestamps, "Show timestamps in logs")
	fs.BoolVar(&cfg.LogCaller, "log-caller", cfg.LogCaller, "Show caller location in logs")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *volatile {
		cfg.Store = store.DriverMemory
	}
	fs.Visit(func(f *flag.Flag) {
		if field, ok := flagFields[f.Name]; ok {
			cfg.setSource(field, SourceFlag)
		}
	})
	return nil
}
