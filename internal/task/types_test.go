package task

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"
)

func TestStateAt(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.Local)
	tests := []struct {
		name string
		task Task
		want State
	}{
		{name: "active future end", task: Task{Active: true, End: now.Add(time.Hour)}, want: StatePending},
		{name: "active past end", task: Task{Active: true, End: now.Add(-time.Hour)}, want: StateOverdue},
		{name: "active end equals now", task: Task{Active: true, End: now}, want: StateOverdue},
		{name: "inactive future end", task: Task{Active: false, End: now.Add(time.Hour)}, want: StateDone},
		{name: "inactive past end", task: Task{Active: false, End: now.Add(-time.Hour)}, want: StateDone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.StateAt(now); got != tt.want {
				t.Errorf("StateAt: got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTimeRoundTrip(t *testing.T) {
	const literal = "2025-01-01 10:00:00"
	ts, err := ParseTime(literal)
	if err != nil {
		t.Fatalf("ParseTime failed: %v", err)
	}
	want := time.Date(2025, 1, 1, 10, 0, 0, 0, time.Local)
	if !ts.Equal(want) {
		t.Errorf("ParseTime: got %v, want %v", ts, want)
	}
	if got := FormatTime(ts); got != literal {
		t.Errorf("FormatTime: got %q, want %q", got, literal)
	}

	now := Truncate(time.Now())
	back, err := ParseTime(FormatTime(now))
	if err != nil {
		t.Fatalf("ParseTime failed: %v", err)
	}
	if !back.Equal(now) {
		t.Errorf("round trip drifted: got %v, want %v", back, now)
	}
}

func TestParseTimeInvalid(t *testing.T) {
	for _, input := range []string{"", "2025-01-01", "01-01-2025 10:00:00", "2025-13-01 10:00:00"} {
		if _, err := ParseTime(input); err == nil {
			t.Errorf("ParseTime(%q): expected error, got nil", input)
		}
	}
}

func TestLess(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local)
	tasks := []Task{
		{ID: 3, End: base.Add(2 * time.Hour)},
		{ID: 2, End: base},
		{ID: 1, End: base},
		{ID: 4, End: base.Add(time.Hour)},
	}
	sort.Slice(tasks, func(i, j int) bool { return Less(tasks[i], tasks[j]) })
	want := []int64{1, 2, 4, 3}
	for i, id := range want {
		if tasks[i].ID != id {
			t.Errorf("position %d: got id %d, want %d", i, tasks[i].ID, id)
		}
	}
}

type recordingWriter struct {
	created   []NewTask
	deleted   []int64
	completed map[int64]time.Time
	err       error
}

func (w *recordingWriter) Create(_ context.Context, title, description string, start, end time.Time) (int64, error) {
	if w.err != nil {
		return 0, w.err
	}
	w.created = append(w.created, NewTask{Title: title, Description: description, Start: start, End: end})
	return int64(len(w.created)), nil
}

func (w *recordingWriter) Delete(_ context.Context, id int64) error {
	if w.err != nil {
		return w.err
	}
	w.deleted = append(w.deleted, id)
	return nil
}

func (w *recordingWriter) Complete(_ context.Context, id int64, at time.Time) error {
	if w.err != nil {
		return w.err
	}
	if w.completed == nil {
		w.completed = make(map[int64]time.Time)
	}
	w.completed[id] = at
	return nil
}

func TestEntityActions(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.Local)
	active := NewEntity(Task{ID: 7, Title: "Buy milk", Active: true, End: now.Add(time.Hour)}, now)
	done := NewEntity(Task{ID: 8, Title: "Old", Active: false, End: now}, now)

	t.Run("entity captures state at build time", func(t *testing.T) {
		if active.State != StatePending {
			t.Errorf("State: got %s, want %s", active.State, StatePending)
		}
		if done.State != StateDone {
			t.Errorf("State: got %s, want %s", done.State, StateDone)
		}
	})

	t.Run("declined delete yields no command", func(t *testing.T) {
		action := active.RequestDelete()
		if action.Prompt != `Delete "Buy milk"?` {
			t.Errorf("Prompt: got %q", action.Prompt)
		}
		if cmd, ok := action.Resolve(false, now); ok || cmd != nil {
			t.Errorf("expected no command, got %v", cmd)
		}
	})

	t.Run("confirmed delete yields delete command", func(t *testing.T) {
		cmd, ok := active.RequestDelete().Resolve(true, now)
		if !ok {
			t.Fatal("expected a command")
		}
		w := &recordingWriter{}
		if err := cmd.Apply(context.Background(), w); err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if len(w.deleted) != 1 || w.deleted[0] != 7 {
			t.Errorf("deleted: got %v, want [7]", w.deleted)
		}
	})

	t.Run("confirmed complete uses resolve time", func(t *testing.T) {
		action, ok := active.RequestComplete()
		if !ok {
			t.Fatal("expected complete to be available for active task")
		}
		at := now.Add(90 * time.Second).Add(300 * time.Millisecond)
		cmd, ok := action.Resolve(true, at)
		if !ok {
			t.Fatal("expected a command")
		}
		w := &recordingWriter{}
		if err := cmd.Apply(context.Background(), w); err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
		if got := w.completed[7]; !got.Equal(Truncate(at)) {
			t.Errorf("completed at: got %v, want %v", got, Truncate(at))
		}
	})

	t.Run("complete is unavailable once done", func(t *testing.T) {
		if action, ok := done.RequestComplete(); ok || action != nil {
			t.Errorf("expected no action for inactive task, got %+v", action)
		}
	})

	t.Run("nil action resolves to nothing", func(t *testing.T) {
		var action *Action
		if _, ok := action.Resolve(true, now); ok {
			t.Error("expected nil action to yield no command")
		}
	})
}

func TestCommandErrorsAreWrapped(t *testing.T) {
	storageErr := errors.New("disk full")
	w := &recordingWriter{err: storageErr}
	cmds := []Command{
		CreateCommand{Task: NewTask{Title: "x"}},
		DeleteCommand{ID: 1},
		CompleteCommand{ID: 1},
	}
	for _, cmd := range cmds {
		err := cmd.Apply(context.Background(), w)
		if !errors.Is(err, storageErr) {
			t.Errorf("%s: expected wrapped storage error, got %v", cmd, err)
		}
	}
}
