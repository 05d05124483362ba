// Package config tests configuration loading.
package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
)

// isolate points HOME and the working directory at empty temp dirs and
// clears TASKLIST_* variables.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("APPDATA", filepath.Join(home, "AppData"))
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "TASKLIST_") {
			t.Setenv(strings.SplitN(kv, "=", 2)[0], "")
		}
	}
	work := t.TempDir()
	chdir(t, work)
	return home
}

func load(t *testing.T, args ...string) *Config {
	t.Helper()
	cfg, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), args)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return cfg
}

func TestDefaults(t *testing.T) {
	home := isolate(t)
	cfg := load(t)

	if cfg.Store != DefaultStore {
		t.Errorf("Store: got %q, want %q", cfg.Store, DefaultStore)
	}
	if want := filepath.Join(home, ".tasklist", "tasks.db"); cfg.DSN != want {
		t.Errorf("DSN: got %q, want %q", cfg.DSN, want)
	}
	if cfg.RefreshInterval() != time.Second || cfg.ClockInterval() != time.Second {
		t.Errorf("intervals: got %s/%s, want 1s/1s", cfg.RefreshInterval(), cfg.ClockInterval())
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("logging: got %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.Source("store") != SourceDefault {
		t.Errorf("Source(store): got %s, want default", cfg.Source("store"))
	}
	if cfg.ConfigFile != "" {
		t.Errorf("ConfigFile: got %q, want empty", cfg.ConfigFile)
	}
}

func TestPriorityOrder(t *testing.T) {
	home := isolate(t)

	userDir := filepath.Join(home, ".tasklist")
	if err := os.MkdirAll(userDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(userDir, "tasklist.toml"), "store = \"memory\"\nlog_level = \"debug\"\nrefresh_interval_seconds = 5\n")
	writeFile(t, "tasklist.toml", "log_level = \"warn\"\nclock_interval_seconds = 3\n")

	t.Run("project file overrides user file", func(t *testing.T) {
		cfg := load(t)
		if cfg.Store != "memory" {
			t.Errorf("Store: got %q, want memory", cfg.Store)
		}
		if cfg.LogLevel != "warn" {
			t.Errorf("LogLevel: got %q, want warn", cfg.LogLevel)
		}
		if cfg.RefreshIntervalSeconds != 5 || cfg.ClockIntervalSeconds != 3 {
			t.Errorf("intervals: got %d/%d", cfg.RefreshIntervalSeconds, cfg.ClockIntervalSeconds)
		}
		if cfg.Source("store") != SourceUserFile || cfg.Source("log_level") != SourceProjFile {
			t.Errorf("sources: store=%s log_level=%s", cfg.Source("store"), cfg.Source("log_level"))
		}
		if cfg.ConfigFile != "tasklist.toml" {
			t.Errorf("ConfigFile: got %q", cfg.ConfigFile)
		}
	})

	t.Run("environment overrides files", func(t *testing.T) {
		t.Setenv("TASKLIST_LOG_LEVEL", "ERROR")
		t.Setenv("TASKLIST_REFRESH_INTERVAL", "9")
		cfg := load(t)
		if cfg.LogLevel != "error" {
			t.Errorf("LogLevel: got %q, want error", cfg.LogLevel)
		}
		if cfg.RefreshIntervalSeconds != 9 {
			t.Errorf("RefreshIntervalSeconds: got %d, want 9", cfg.RefreshIntervalSeconds)
		}
		if cfg.Source("log_level") != SourceEnv {
			t.Errorf("Source(log_level): got %s", cfg.Source("log_level"))
		}
	})

	t.Run("flags override everything", func(t *testing.T) {
		t.Setenv("TASKLIST_LOG_LEVEL", "error")
		cfg := load(t, "-log-level", "debug", "-store", "sqlite", "-dsn", "x.db")
		if cfg.LogLevel != "debug" || cfg.Store != "sqlite" || cfg.DSN != "x.db" {
			t.Errorf("got level %q store %q dsn %q", cfg.LogLevel, cfg.Store, cfg.DSN)
		}
		if cfg.Source("dsn") != SourceFlag {
			t.Errorf("Source(dsn): got %s", cfg.Source("dsn"))
		}
	})
}

func TestVolatileFlag(t *testing.T) {
	isolate(t)
	cfg := load(t, "-volatile", "ls")
	if cfg.Store != "memory" {
		t.Errorf("Store: got %q, want memory", cfg.Store)
	}
	if cfg.Source("store") != SourceFlag {
		t.Errorf("Source(store): got %s", cfg.Source("store"))
	}
}

func TestHookCommand(t *testing.T) {
	home := isolate(t)

	t.Setenv("TASKLIST_HOOK", "~/bin/notify.sh")
	cfg := load(t)
	if want := filepath.Join(home, "bin", "notify.sh"); cfg.HookCommand != want {
		t.Errorf("HookCommand: got %q, want %q", cfg.HookCommand, want)
	}
	if cfg.Source("hook_command") != SourceEnv {
		t.Errorf("Source(hook_command): got %s", cfg.Source("hook_command"))
	}

	cfg = load(t, "-hook", "/usr/local/bin/hook")
	if cfg.HookCommand != "/usr/local/bin/hook" || cfg.Source("hook_command") != SourceFlag {
		t.Errorf("flag hook: got %q from %s", cfg.HookCommand, cfg.Source("hook_command"))
	}
}

func TestRemainingArgs(t *testing.T) {
	isolate(t)
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	if _, err := Load(fs, []string{"-store", "memory", "add", "-end", "x"}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := fs.Args(); len(got) != 3 || got[0] != "add" {
		t.Errorf("Args: got %v", got)
	}
}

func TestInvalidValues(t *testing.T) {
	isolate(t)

	t.Run("unknown store", func(t *testing.T) {
		_, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-store", "oracle"})
		if err == nil || !strings.Contains(err.Error(), "invalid store") {
			t.Errorf("expected invalid store error, got %v", err)
		}
	})

	t.Run("unknown log format", func(t *testing.T) {
		_, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), []string{"-log-format", "xml"})
		if err == nil {
			t.Error("expected error for unknown log format")
		}
	})

	t.Run("unknown key in file", func(t *testing.T) {
		writeFile(t, ".tasklist.toml", "stor = \"memory\"\n")
		defer os.Remove(".tasklist.toml")
		_, err := Load(flag.NewFlagSet("test", flag.ContinueOnError), nil)
		if err == nil || !strings.Contains(err.Error(), "unknown keys: stor") {
			t.Errorf("expected unknown key error, got %v", err)
		}
	})

	t.Run("non-positive intervals fall back to defaults", func(t *testing.T) {
		cfg := load(t, "-refresh-interval", "0", "-clock-interval", "-2")
		if cfg.RefreshIntervalSeconds != 1 || cfg.ClockIntervalSeconds != 1 {
			t.Errorf("intervals: got %d/%d", cfg.RefreshIntervalSeconds, cfg.ClockIntervalSeconds)
		}
	})
}

func TestExampleConfigDecodes(t *testing.T) {
	var cfg Config
	md, err := toml.Decode(ExampleConfig(), &cfg)
	if err != nil {
		t.Fatalf("example config does not decode: %v", err)
	}
	if len(md.Undecoded()) > 0 {
		t.Errorf("example config has unknown keys: %v", md.Undecoded())
	}
	if cfg.Store != DefaultStore || cfg.DSN != DefaultDSN {
		t.Errorf("example config: got store %q dsn %q", cfg.Store, cfg.DSN)
	}
}

func TestExpandPath(t *testing.T) {
	home := isolate(t)
	t.Setenv("TASKLIST_TEST_DIR", "/srv/data")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", home},
		{"~/tasks.db", filepath.Join(home, "tasks.db")},
		{"$TASKLIST_TEST_DIR/tasks.db", "/srv/data/tasks.db"},
		{"/abs/tasks.db", "/abs/tasks.db"},
	}
	for _, tt := range tests {
		if got := expandPath(tt.in); got != tt.want {
			t.Errorf("expandPath(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir from Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PWD", dir)
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
