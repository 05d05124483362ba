package cmd

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/nibzard/tasklist/internal/config"
	"github.com/nibzard/tasklist/internal/controller"
	"github.com/nibzard/tasklist/internal/form"
	"github.com/nibzard/tasklist/internal/task"
)

// lsCommand lists tasks ordered by end time.
func lsCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist ls", flag.ContinueOnError)
	fs.SetOutput(stderr)
	state := fs.String("state", "", "Filter by state (pending|overdue|done)")
	verbose := fs.Bool("v", false, "Show descriptions and start times")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	filter := task.State(strings.ToLower(strings.TrimSpace(*state)))
	switch filter {
	case "", task.StatePending, task.StateOverdue, task.StateDone:
	default:
		return fmt.Errorf("invalid state %q (expected pending|overdue|done)", *state)
	}

	ctrl, s, err := newController(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := ctrl.Refresh(ctx)
	if err != nil {
		return err
	}
	printed := 0
	for _, e := range snap.Entities {
		if filter != "" && e.State != filter {
			continue
		}
		printEntity(e, *verbose)
		printed++
	}
	if printed == 0 {
		fmt.Fprintln(stdout, "No tasks.")
	}
	return nil
}

func printEntity(e task.Entity, verbose bool) {
	fmt.Fprintf(stdout, "%4d  %-8s %s  %s\n", e.Task.ID, e.State, e.End(), e.Task.Title)
	if !verbose {
		return
	}
	if e.Task.Description != "" {
		fmt.Fprintf(stdout, "      %s\n", e.Task.Description)
	}
	fmt.Fprintf(stdout, "      Start time: %s | End time: %s\n", e.Start(), e.End())
}

// addCommand creates a task through the same form validation as the UI.
func addCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist add", flag.ContinueOnError)
	fs.SetOutput(stderr)
	title := fs.String("title", "", "Task title")
	description := fs.String("description", "", "Task description")
	end := fs.String("end", "", "End time ("+task.TimeLayout+")")
	in := fs.Duration("in", 0, "End time relative to now (e.g. 90m)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *title == "" {
		*title = strings.Join(fs.Args(), " ")
	} else if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if *end != "" && *in != 0 {
		return fmt.Errorf("use either -end or -in, not both")
	}

	ctrl, s, err := newController(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	now := ctrl.Now()
	f := form.New(now)
	f.Title = *title
	f.Description = *description
	switch {
	case *in != 0:
		f.SetEnd(now.Add(*in))
	case *end != "":
		f.SetEndText(*end)
	}
	req, err := f.Confirm(ctrl.Now())
	if err != nil {
		return err
	}
	if _, err := ctrl.Dispatch(ctx, task.CreateCommand{Task: req}); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Added %q (ends %s)\n", req.Title, task.FormatTime(req.End))
	return nil
}

// doneCommand ends a task now.
func doneCommand(ctx context.Context, cfg *config.Config, args []string) error {
	return actionCommand(ctx, cfg, "done", args, func(e task.Entity) (*task.Action, bool) {
		action, ok := e.RequestComplete()
		if !ok {
			fmt.Fprintf(stdout, "Task %d is already done.\n", e.Task.ID)
		}
		return action, ok
	})
}

// rmCommand deletes a task.
func rmCommand(ctx context.Context, cfg *config.Config, args []string) error {
	return actionCommand(ctx, cfg, "rm", args, func(e task.Entity) (*task.Action, bool) {
		return e.RequestDelete(), true
	})
}

// actionCommand resolves a confirmed action against the task named by the
// single id argument.
func actionCommand(ctx context.Context, cfg *config.Config, name string, args []string, request func(task.Entity) (*task.Action, bool)) error {
	fs := flag.NewFlagSet("tasklist "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	fs.BoolVar(yes, "y", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(fs.Args()) != 1 {
		return fmt.Errorf("usage: tasklist %s [-yes] <id>", name)
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid task id %q", fs.Arg(0))
	}

	ctrl, s, err := newController(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := ctrl.Refresh(ctx)
	if err != nil {
		return err
	}
	entity, ok := findEntity(snap, id)
	if !ok {
		return fmt.Errorf("no task with id %d", id)
	}
	action, ok := request(entity)
	if !ok {
		return nil
	}

	confirmed := *yes
	if !confirmed {
		if confirmed, err = confirm(action.Prompt); err != nil {
			return err
		}
	}
	cmd, ok := action.Resolve(confirmed, ctrl.Now())
	if !ok {
		fmt.Fprintln(stdout, "Cancelled.")
		return nil
	}
	if _, err := ctrl.Dispatch(ctx, cmd); err != nil {
		return err
	}
	switch c := cmd.(type) {
	case task.DeleteCommand:
		fmt.Fprintf(stdout, "Deleted task %d.\n", c.ID)
	case task.CompleteCommand:
		fmt.Fprintf(stdout, "Ended task %d at %s.\n", c.ID, task.FormatTime(c.At))
	}
	return nil
}

func findEntity(snap controller.Snapshot, id int64) (task.Entity, bool) {
	for _, e := range snap.Entities {
		if e.Task.ID == id {
			return e, true
		}
	}
	return task.Entity{}, false
}

// watchCommand prints the task list each time a refresh changes it.
func watchCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist watch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	interval := fs.Duration("interval", cfg.RefreshInterval(), "Refresh interval")
	count := fs.Int("n", 0, "Stop after this many updates (0 = until interrupted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctrl, s, err := newController(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var last string
	updates := 0
	err = ctrl.Run(watchCtx, *interval, func(snap controller.Snapshot, err error) {
		if err != nil {
			fmt.Fprintf(stderr, "refresh failed: %v\n", err)
			return
		}
		text := renderSnapshot(snap)
		if text == last {
			return
		}
		last = text
		fmt.Fprintf(stdout, "== %s (%d tasks)\n%s", task.FormatTime(snap.At), snap.Len(), text)
		updates++
		if *count > 0 && updates >= *count {
			cancel()
		}
	})
	if ctx.Err() == nil && watchCtx.Err() != nil {
		return nil
	}
	return err
}

// renderSnapshot renders the rows of snap without the refresh time, so
// that unchanged lists compare equal.
func renderSnapshot(snap controller.Snapshot) string {
	var b strings.Builder
	for _, e := range snap.Entities {
		fmt.Fprintf(&b, "%4d  %-8s %s  %s\n", e.Task.ID, e.State, e.End(), e.Task.Title)
	}
	return b.String()
}
