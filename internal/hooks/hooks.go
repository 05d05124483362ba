// Package hooks invokes an external command after each task mutation.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"

	"github.com/nibzard/tasklist/internal/task"
)

// Event names passed as the first hook argument.
const (
	EventCreate   = "create"
	EventDelete   = "delete"
	EventComplete = "complete"
)

// Options configures a hook invocation.
type Options struct {
	Command string
	WorkDir string
	// Stdout and Stderr default to the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// Result captures the outcome of a hook invocation.
type Result struct {
	Ran      bool
	Command  []string
	ExitCode int
	Event    string
}

// Args returns the hook arguments for cmd: the event name, the task id
// (empty for create) and a detail (the title for create, the completion
// time for complete).
func Args(cmd task.Command) []string {
	switch c := cmd.(type) {
	case task.CreateCommand:
		return []string{EventCreate, "", c.Task.Title}
	case task.DeleteCommand:
		return []string{EventDelete, strconv.FormatInt(c.ID, 10), ""}
	case task.CompleteCommand:
		return []string{EventComplete, strconv.FormatInt(c.ID, 10), task.FormatTime(c.At)}
	}
	return nil
}

// Invoke runs the hook command for cmd. An empty command or an unknown
// command type does nothing.
func Invoke(ctx context.Context, opts Options, cmd task.Command) (Result, error) {
	args := Args(cmd)
	if opts.Command == "" || args == nil {
		return Result{}, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	c := exec.CommandContext(ctx, opts.Command, args...)
	if opts.WorkDir != "" {
		c.Dir = opts.WorkDir
	}
	c.Stdout = opts.Stdout
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	c.Stderr = opts.Stderr
	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}

	err := c.Run()
	result := Result{
		Ran:      true,
		Command:  c.Args,
		ExitCode: exitCodeFromError(err),
		Event:    args[0],
	}
	if err != nil {
		return result, fmt.Errorf("hook command failed: %w", err)
	}
	return result, nil
}

func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
