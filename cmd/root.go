// Package cmd implements the CLI command structure for tasklist.
package cmd

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasklist/internal/config"
	"github.com/nibzard/tasklist/internal/controller"
	"github.com/nibzard/tasklist/internal/hooks"
	"github.com/nibzard/tasklist/internal/logging"
	"github.com/nibzard/tasklist/internal/store"
	"github.com/nibzard/tasklist/internal/task"
	"github.com/nibzard/tasklist/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Standard streams, replaced in tests.
var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Run executes the tasklist CLI.
func Run(ctx context.Context, args []string) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("tasklist", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")

	// Global flags
	cfg, err := config.Load(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	// If no args or first arg is a flag, use "run" as default
	subcommand := "run"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 && !strings.HasPrefix(remainingArgs[0], "-") {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	switch subcommand {
	case "run", "ui":
		return runCommand(ctx, cfg, remainingArgs)
	case "ls", "list":
		return lsCommand(ctx, cfg, remainingArgs)
	case "add":
		return addCommand(ctx, cfg, remainingArgs)
	case "done", "end":
		return doneCommand(ctx, cfg, remainingArgs)
	case "rm", "delete":
		return rmCommand(ctx, cfg, remainingArgs)
	case "watch":
		return watchCommand(ctx, cfg, remainingArgs)
	case "export":
		return exportCommand(ctx, cfg, remainingArgs)
	case "import":
		return importCommand(ctx, cfg, remainingArgs)
	case "doctor":
		return doctorCommand(ctx, cfg, remainingArgs)
	case "tail":
		return tailCommand(ctx, cfg, remainingArgs)
	case "init":
		return initCommand(remainingArgs)
	case "version":
		return versionCommand()
	case "help":
		printUsage(fs, stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// runCommand launches the terminal UI.
func runCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	// The UI owns the terminal, so logs go to a per-run file.
	runLog, err := logging.NewRunLogger(cfg.LogDir)
	if err != nil {
		return fmt.Errorf("creating run log: %w", err)
	}
	defer runLog.Close()
	logger, err := newLogger(cfg, runLog.Writer())
	if err != nil {
		return err
	}
	logger.Info("starting", "version", Version, "store", cfg.Store, "run_id", runLog.RunID)

	s, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("open store", "err", err)
		return err
	}
	defer s.Close()

	ctrl := controller.New(s,
		controller.WithLogger(logger),
		controller.WithAfterApply(hookRunner(cfg, logger, runLog.Writer())),
	)
	err = ui.Run(ctx, ctrl,
		ui.WithRefreshInterval(cfg.RefreshInterval()),
		ui.WithClockInterval(cfg.ClockInterval()),
		ui.WithStoreLabel(storeLabel(cfg)),
		ui.WithLogger(logger),
	)
	logger.Info("stopped", "skipped_refreshes", ctrl.Skipped())
	return err
}

// doctorCommand checks config, store connectivity and the log directory.
func doctorCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist doctor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	fmt.Fprintln(stdout, "Tasklist Doctor")
	fmt.Fprintln(stdout, "===============")
	fmt.Fprintln(stdout)

	allOK := true

	// Config
	fmt.Fprintln(stdout, "Config:")
	if cfg.ConfigFile != "" {
		fmt.Fprintf(stdout, "  File: %s\n", cfg.ConfigFile)
	} else {
		fmt.Fprintln(stdout, "  File: (none, using defaults)")
	}
	rows := []struct {
		key   string
		value any
	}{
		{"store", cfg.Store},
		{"dsn", displayDSN(cfg)},
		{"refresh_interval_seconds", cfg.RefreshIntervalSeconds},
		{"clock_interval_seconds", cfg.ClockIntervalSeconds},
		{"hook_command", cfg.HookCommand},
		{"log_dir", cfg.LogDir},
		{"log_level", cfg.LogLevel},
		{"log_format", cfg.LogFormat},
	}
	for _, row := range rows {
		if *verbose {
			fmt.Fprintf(stdout, "  %s = %v (%s)\n", row.key, row.value, cfg.Source(row.key))
		} else {
			fmt.Fprintf(stdout, "  %s = %v\n", row.key, row.value)
		}
	}
	if _, err := log.ParseLevel(cfg.LogLevel); err != nil {
		fmt.Fprintf(stdout, "  ❌ Log level: %s (expected debug|info|warn|error)\n", cfg.LogLevel)
		allOK = false
	}
	fmt.Fprintln(stdout)

	// Store
	fmt.Fprintf(stdout, "Store: %s\n", storeLabel(cfg))
	s, err := openStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stdout, "  ❌ Error: %v\n", err)
		allOK = false
	} else {
		tasks, err := s.List(ctx)
		if err != nil {
			fmt.Fprintf(stdout, "  ❌ List failed: %v\n", err)
			allOK = false
		} else {
			fmt.Fprintf(stdout, "  ✅ OK (%d tasks)\n", len(tasks))
		}
		if cfg.Store == store.DriverMemory {
			fmt.Fprintln(stdout, "  ⚠️  Volatile store: tasks are lost on exit")
		}
		_ = s.Close()
	}
	fmt.Fprintln(stdout)

	// Hook
	if cfg.HookCommand != "" {
		fmt.Fprintf(stdout, "Hook: %s\n", cfg.HookCommand)
		if info, err := os.Stat(cfg.HookCommand); err != nil {
			fmt.Fprintf(stdout, "  ❌ Error: %v\n", err)
			allOK = false
		} else if info.IsDir() || info.Mode()&0111 == 0 {
			fmt.Fprintln(stdout, "  ❌ Error: not an executable file")
			allOK = false
		} else {
			fmt.Fprintln(stdout, "  ✅ OK")
		}
		fmt.Fprintln(stdout)
	}

	// Log directory
	fmt.Fprintf(stdout, "Log directory: %s\n", cfg.LogDir)
	if info, err := os.Stat(cfg.LogDir); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(stdout, "  ⚠️  Not found (will be created on run)")
		} else {
			fmt.Fprintf(stdout, "  ❌ Error: %v\n", err)
			allOK = false
		}
	} else if !info.IsDir() {
		fmt.Fprintln(stdout, "  ❌ Error: path is not a directory")
		allOK = false
	} else {
		fmt.Fprintln(stdout, "  ✅ OK")
	}
	fmt.Fprintln(stdout)

	// Terminal
	if ui.IsTTY(os.Stdout) {
		fmt.Fprintln(stdout, "Terminal: ✅ TTY")
	} else {
		fmt.Fprintln(stdout, "Terminal: ⚠️  not a TTY (the UI needs one, other commands work)")
	}
	fmt.Fprintln(stdout)

	if allOK {
		fmt.Fprintln(stdout, "✅ All checks passed!")
		return nil
	}
	fmt.Fprintln(stdout, "⚠️  Some checks failed. Tasklist may not function correctly.")
	return fmt.Errorf("doctor checks failed")
}

// tailCommand tails the latest UI run log.
func tailCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist tail", flag.ContinueOnError)
	fs.SetOutput(stderr)
	follow := fs.Bool("f", false, "Follow the log (like tail -f)")
	fs.BoolVar(follow, "follow", false, "Follow the log (like tail -f)")
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logPath, err := logging.FindLatestLog(cfg.LogDir)
	if err != nil {
		return fmt.Errorf("finding latest log: %w", err)
	}
	if logPath == "" {
		fmt.Fprintln(stdout, "No log files found.")
		return nil
	}

	fmt.Fprintf(stdout, "Tailing: %s\n", logPath)
	if *follow {
		fmt.Fprintln(stdout, "(Ctrl+C to stop)")
	}
	fmt.Fprintln(stdout)

	return logging.TailLog(ctx, stdout, logPath, *n, *follow)
}

// initCommand writes an example tasklist.toml into the working directory.
func initCommand(args []string) error {
	fs := flag.NewFlagSet("tasklist init", flag.ContinueOnError)
	fs.SetOutput(stderr)
	force := fs.Bool("force", false, "Overwrite an existing tasklist.toml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	const path = "tasklist.toml"
	if _, err := os.Stat(path); err == nil && !*force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", path)
	}
	if err := os.WriteFile(path, []byte(config.ExampleConfig()), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(stdout, "Wrote %s\n", path)
	return nil
}

// versionCommand prints version information.
func versionCommand() error {
	fmt.Fprintf(stdout, "tasklist version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Tasklist - A single-user to-do list")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  tasklist [options] [command] [command options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run              Launch the terminal UI (default command)")
	fmt.Fprintln(w, "  ls               List tasks ordered by end time")
	fmt.Fprintln(w, "  add [title]      Add a task")
	fmt.Fprintln(w, "  done <id>        End a task now")
	fmt.Fprintln(w, "  rm <id>          Delete a task")
	fmt.Fprintln(w, "  watch            Print the task list whenever it changes")
	fmt.Fprintln(w, "  export [file]    Write all tasks as JSON (stdout by default)")
	fmt.Fprintln(w, "  import <file>    Add the tasks of a JSON export")
	fmt.Fprintln(w, "  doctor           Check config, store and log directory")
	fmt.Fprintln(w, "  tail             Tail the latest UI log file")
	fmt.Fprintln(w, "  init             Write an example tasklist.toml")
	fmt.Fprintln(w, "  version          Show version information")
	fmt.Fprintln(w, "  help             Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Add Options:")
	fmt.Fprintln(w, "  -title string")
	fmt.Fprintln(w, "        Task title (or pass it as arguments)")
	fmt.Fprintln(w, "  -description string")
	fmt.Fprintln(w, "        Task description")
	fmt.Fprintln(w, "  -end string")
	fmt.Fprintln(w, "        End time (YYYY-MM-DD HH:MM:SS)")
	fmt.Fprintln(w, "  -in duration")
	fmt.Fprintln(w, "        End time relative to now (e.g. 90m)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Done/Rm Options:")
	fmt.Fprintln(w, "  -y, -yes")
	fmt.Fprintln(w, "        Skip the confirmation prompt")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Ls Options:")
	fmt.Fprintln(w, "  -state string")
	fmt.Fprintln(w, "        Filter by state (pending|overdue|done)")
	fmt.Fprintln(w, "  -v    Show descriptions and start times")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Tail Options:")
	fmt.Fprintln(w, "  -f, --follow")
	fmt.Fprintln(w, "        Follow the log (like tail -f)")
	fmt.Fprintln(w, "  -n int")
	fmt.Fprintln(w, "        Number of lines to show (0 = all)")
}

// newLogger builds the configured logger writing to w.
func newLogger(cfg *config.Config, w io.Writer) (*log.Logger, error) {
	opts := logging.DefaultOptions()
	opts.Level = cfg.LogLevel
	opts.Format = cfg.LogFormat
	opts.ReportTimestamp = cfg.LogTimestamps
	opts.ReportCaller = cfg.LogCaller
	logger, err := logging.New(w, opts)
	if err != nil {
		return nil, fmt.Errorf("configuring logger: %w", err)
	}
	return logger, nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	s, err := store.Open(ctx, cfg.Store, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return s, nil
}

// newController opens the store and wraps it with a controller that logs
// to stderr.
func newController(ctx context.Context, cfg *config.Config) (*controller.Controller, store.Store, error) {
	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return nil, nil, err
	}
	s, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	ctrl := controller.New(s,
		controller.WithLogger(logger),
		controller.WithAfterApply(hookRunner(cfg, logger, stderr)),
	)
	return ctrl, s, nil
}

// hookRunner returns the callback that runs the configured hook command
// after each task change, or nil when no hook is set. Hook output goes
// to out.
func hookRunner(cfg *config.Config, logger *log.Logger, out io.Writer) func(context.Context, task.Command) {
	if cfg.HookCommand == "" {
		return nil
	}
	return func(ctx context.Context, cmd task.Command) {
		result, err := hooks.Invoke(ctx, hooks.Options{
			Command: cfg.HookCommand,
			Stdout:  out,
			Stderr:  out,
		}, cmd)
		if result.Ran {
			logger.Debug("hook ran", "command", result.Command, "exit_code", result.ExitCode)
		}
		if err != nil {
			logger.Warn("hook failed", "event", result.Event, "err", err)
		}
	}
}

func storeLabel(cfg *config.Config) string {
	switch cfg.Store {
	case store.DriverMemory:
		return "memory (volatile)"
	case store.DriverSQLite:
		return "sqlite " + cfg.DSN
	}
	return cfg.Store
}

// displayDSN hides PostgreSQL passwords.
func displayDSN(cfg *config.Config) string {
	if cfg.Store != store.DriverPostgres || cfg.DSN == "" {
		return cfg.DSN
	}
	u, err := url.Parse(cfg.DSN)
	if err != nil || u.Scheme == "" {
		return "(set)"
	}
	return u.Redacted()
}

// confirm asks prompt on stdout and reads a yes/no answer from stdin.
// Anything but y or yes is a no.
func confirm(prompt string) (bool, error) {
	fmt.Fprintf(stdout, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
