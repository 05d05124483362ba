// Package form implements the new task form.
//
// A Form starts open and ends in exactly one terminal state. A rejected
// submission closes the form as well: the user has to open a new form to
// try again.
package form

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nibzard/tasklist/internal/task"
)

// Validation errors reported to the user.
var (
	ErrEmptyTitle   = errors.New("Title cannot be empty")
	ErrEndNotFuture = errors.New("End time must be in the future")
	ErrInvalidEnd   = errors.New("End time must look like " + task.TimeLayout)
	ErrClosed       = errors.New("form is closed")
)

// Status is the lifecycle state of a form.
type Status int

const (
	StatusOpen Status = iota
	StatusConfirmed
	StatusRejected
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusConfirmed:
		return "confirmed"
	case StatusRejected:
		return "rejected"
	case StatusCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Form collects the fields of a new task.
type Form struct {
	Title       string
	Description string

	end    time.Time
	endErr error
	status Status
}

// New opens a form with the end time pre-populated to now.
func New(now time.Time) *Form {
	return &Form{end: task.Truncate(now)}
}

// Status returns the current lifecycle state.
func (f *Form) Status() Status {
	return f.status
}

// End returns the chosen end time.
func (f *Form) End() time.Time {
	return f.end
}

// EndText returns the chosen end time in display format.
func (f *Form) EndText() string {
	return task.FormatTime(f.end)
}

// SetEnd sets the end time.
func (f *Form) SetEnd(end time.Time) {
	f.end = task.Truncate(end)
	f.endErr = nil
}

// SetEndText parses and sets the end time. A parse failure is kept and
// reported by Confirm.
func (f *Form) SetEndText(text string) {
	end, err := task.ParseTime(text)
	if err != nil {
		f.endErr = fmt.Errorf("%w: %v", ErrInvalidEnd, err)
		return
	}
	f.SetEnd(end)
}

// Confirm validates the form at now and closes it. On success it returns
// a creation request whose start time is now.
func (f *Form) Confirm(now time.Time) (task.NewTask, error) {
	if f.status != StatusOpen {
		return task.NewTask{}, ErrClosed
	}
	if err := f.validate(now); err != nil {
		f.status = StatusRejected
		return task.NewTask{}, err
	}
	f.status = StatusConfirmed
	return task.NewTask{
		Title:       strings.TrimSpace(f.Title),
		Description: f.Description,
		Start:       task.Truncate(now),
		End:         f.end,
	}, nil
}

// Cancel closes the form without producing a request.
func (f *Form) Cancel() error {
	if f.status != StatusOpen {
		return ErrClosed
	}
	f.status = StatusCancelled
	return nil
}

func (f *Form) validate(now time.Time) error {
	if strings.TrimSpace(f.Title) == "" {
		return ErrEmptyTitle
	}
	if f.endErr != nil {
		return f.endErr
	}
	if !f.end.After(now) {
		return ErrEndNotFuture
	}
	return nil
}
