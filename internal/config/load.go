package config

import (
	"flag"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/nibzard/tasklist/internal/store"
)

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file
// 3. Project config file
// 4. Environment variables
// 5. CLI flags
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}

	// 1. Set defaults
	setDefaults(cfg)

	// 2. Try to load from user config file
	if userConfigFile := findUserConfigFile(); userConfigFile != "" {
		if err := loadConfigFile(cfg, userConfigFile, SourceUserFile); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", userConfigFile, err)
		}
	}

	// 3. Try to load from project config file (overrides user config)
	if projectConfigFile := findProjectConfigFile(); projectConfigFile != "" {
		if err := loadConfigFile(cfg, projectConfigFile, SourceProjFile); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", projectConfigFile, err)
		}
	}

	// 4. Override from environment
	loadFromEnv(cfg)

	// 5. Parse CLI flags (they override everything)
	if err := parseFlags(cfg, fs, args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	// 6. Compute derived values
	if err := finalizeConfig(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}

	return cfg, nil
}

// loadConfigFile decodes TOML from path over cfg and records which keys it set.
func loadConfigFile(cfg *Config, path string, source ConfigSource) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	for _, key := range md.Keys() {
		cfg.setSource(key.String(), source)
	}
	cfg.ConfigFile = path
	return nil
}

// finalizeConfig normalizes values and expands paths.
func finalizeConfig(cfg *Config) error {
	driver := store.NormalizeDriver(cfg.Store)
	if driver == "" {
		return fmt.Errorf("invalid store %q (expected memory|sqlite|postgres)", cfg.Store)
	}
	cfg.Store = driver

	if cfg.Store == store.DriverSQLite {
		cfg.DSN = expandPath(cfg.DSN)
	}
	cfg.LogDir = expandPath(cfg.LogDir)
	cfg.HookCommand = expandPath(strings.TrimSpace(cfg.HookCommand))

	if cfg.RefreshIntervalSeconds <= 0 {
		cfg.RefreshIntervalSeconds = DefaultRefreshInterval
	}
	if cfg.ClockIntervalSeconds <= 0 {
		cfg.ClockIntervalSeconds = DefaultClockInterval
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	switch cfg.LogFormat {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("invalid log format %q (expected text|json|logfmt)", cfg.LogFormat)
	}
	return nil
}
