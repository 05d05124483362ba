package task

import (
	"context"
	"fmt"
	"time"
)

// Writer is the part of a task store that commands mutate.
type Writer interface {
	Create(ctx context.Context, title, description string, start, end time.Time) (int64, error)
	Delete(ctx context.Context, id int64) error
	Complete(ctx context.Context, id int64, at time.Time) error
}

// Command is a single store mutation requested by a user action.
type Command interface {
	Apply(ctx context.Context, w Writer) error
	String() string
}

// CreateCommand inserts a new active task.
type CreateCommand struct {
	Task NewTask
}

func (c CreateCommand) Apply(ctx context.Context, w Writer) error {
	if _, err := w.Create(ctx, c.Task.Title, c.Task.Description, c.Task.Start, c.Task.End); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (c CreateCommand) String() string {
	return fmt.Sprintf("create %q", c.Task.Title)
}

// DeleteCommand removes a task.
type DeleteCommand struct {
	ID int64
}

func (c DeleteCommand) Apply(ctx context.Context, w Writer) error {
	if err := w.Delete(ctx, c.ID); err != nil {
		return fmt.Errorf("delete task %d: %w", c.ID, err)
	}
	return nil
}

func (c DeleteCommand) String() string {
	return fmt.Sprintf("delete %d", c.ID)
}

// CompleteCommand marks a task done at At.
type CompleteCommand struct {
	ID int64
	At time.Time
}

func (c CompleteCommand) Apply(ctx context.Context, w Writer) error {
	if err := w.Complete(ctx, c.ID, c.At); err != nil {
		return fmt.Errorf("complete task %d: %w", c.ID, err)
	}
	return nil
}

func (c CompleteCommand) String() string {
	return fmt.Sprintf("complete %d at %s", c.ID, FormatTime(c.At))
}

// ActionKind identifies which user action an Action represents.
type ActionKind string

const (
	ActionDelete   ActionKind = "delete"
	ActionComplete ActionKind = "complete"
)

// Action is a user action waiting on a yes/no confirmation.
// The default answer is no.
type Action struct {
	Kind   ActionKind
	TaskID int64
	Prompt string
}

// Resolve turns the confirmation answer into a command. A declined
// action yields no command.
func (a *Action) Resolve(confirmed bool, now time.Time) (Command, bool) {
	if a == nil || !confirmed {
		return nil, false
	}
	switch a.Kind {
	case ActionDelete:
		return DeleteCommand{ID: a.TaskID}, true
	case ActionComplete:
		return CompleteCommand{ID: a.TaskID, At: Truncate(now)}, true
	}
	return nil, false
}

// Entity is one rendered row bound to one task record.
type Entity struct {
	Task  Task
	State State
}

// NewEntity binds t to the state it has at now.
func NewEntity(t Task, now time.Time) Entity {
	return Entity{Task: t, State: t.StateAt(now)}
}

// Start returns the formatted start time.
func (e Entity) Start() string {
	return FormatTime(e.Task.Start)
}

// End returns the formatted end time.
func (e Entity) End() string {
	return FormatTime(e.Task.End)
}

// RequestDelete asks for confirmation to delete the task.
func (e Entity) RequestDelete() *Action {
	return &Action{
		Kind:   ActionDelete,
		TaskID: e.Task.ID,
		Prompt: fmt.Sprintf("Delete %q?", e.Task.Title),
	}
}

// RequestComplete asks for confirmation to end the task.
// It reports false when the task is already completed.
func (e Entity) RequestComplete() (*Action, bool) {
	if !e.Task.Active {
		return nil, false
	}
	return &Action{
		Kind:   ActionComplete,
		TaskID: e.Task.ID,
		Prompt: fmt.Sprintf("End task %q?", e.Task.Title),
	}, true
}
