package task

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the text format used for every stored and displayed timestamp.
const TimeLayout = "2006-01-02 15:04:05"

// State is the render state of a task at a given instant.
type State string

const (
	StatePending State = "pending"
	StateOverdue State = "overdue"
	StateDone    State = "done"
)

// Task represents a single stored task record.
type Task struct {
	ID          int64
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Active      bool
}

// StateAt reports how the task renders at now.
func (t Task) StateAt(now time.Time) State {
	if !t.Active {
		return StateDone
	}
	if t.End.After(now) {
		return StatePending
	}
	return StateOverdue
}

// NewTask is a validated creation request.
type NewTask struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
}

// FormatTime renders ts in TimeLayout using the local time zone.
func FormatTime(ts time.Time) string {
	return ts.In(time.Local).Format(TimeLayout)
}

// ParseTime parses text written by FormatTime.
func ParseTime(text string) (time.Time, error) {
	ts, err := time.ParseInLocation(TimeLayout, strings.TrimSpace(text), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", text, err)
	}
	return ts, nil
}

// Truncate drops sub-second precision so the value survives a
// FormatTime/ParseTime round trip.
func Truncate(ts time.Time) time.Time {
	return ts.Truncate(time.Second)
}

// Less orders tasks by end time ascending, then by ID.
func Less(a, b Task) bool {
	if !a.End.Equal(b.End) {
		return a.End.Before(b.End)
	}
	return a.ID < b.ID
}
