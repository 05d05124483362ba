package archive

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nibzard/tasklist/internal/store"
	"github.com/nibzard/tasklist/internal/task"
)

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.Local)
	tasks := []task.Task{
		{ID: 1, Title: "Buy milk", Start: base, End: base.Add(time.Hour), Active: true},
		{ID: 2, Title: "File taxes", Description: "form 1040", Start: base, End: base.Add(2 * time.Hour), Active: false},
	}

	if err := FromTasks(tasks, base).Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.SchemaVersion != SchemaVersion {
		t.Errorf("SchemaVersion: got %d", loaded.SchemaVersion)
	}
	if loaded.ExportedAt != "2025-01-01 10:00:00" {
		t.Errorf("ExportedAt: got %q", loaded.ExportedAt)
	}
	if len(loaded.Tasks) != 2 {
		t.Fatalf("Tasks count: got %d, want 2", len(loaded.Tasks))
	}
	r := loaded.Tasks[1]
	if r.Title != "File taxes" || r.Description != "form 1040" || r.Active {
		t.Errorf("record: got %+v", r)
	}
	start, end, err := r.Times()
	if err != nil {
		t.Fatalf("Times failed: %v", err)
	}
	if !start.Equal(base) || !end.Equal(base.Add(2*time.Hour)) {
		t.Errorf("Times: got %v - %v", start, end)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantPath string
	}{
		{
			name: "valid",
			data: `{"schema_version":1,"tasks":[{"title":"a","start":"2025-01-01 10:00:00","end":"2025-01-01 11:00:00","active":true}]}`,
		},
		{
			name:     "wrong version",
			data:     `{"schema_version":2,"tasks":[]}`,
			wantPath: "schema_version",
		},
		{
			name:     "missing tasks",
			data:     `{"schema_version":1}`,
			wantPath: "",
		},
		{
			name:     "empty title",
			data:     `{"schema_version":1,"tasks":[{"title":"","start":"2025-01-01 10:00:00","end":"2025-01-01 11:00:00","active":true}]}`,
			wantPath: "tasks[0].title",
		},
		{
			name:     "bad timestamp format",
			data:     `{"schema_version":1,"tasks":[{"title":"a","start":"2025-01-01T10:00:00Z","end":"2025-01-01 11:00:00","active":true}]}`,
			wantPath: "tasks[0].start",
		},
		{
			name:     "unknown field",
			data:     `{"schema_version":1,"tasks":[],"owner":"me"}`,
			wantPath: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate([]byte(tt.data))
			if tt.name == "valid" {
				if len(errs) != 0 {
					t.Fatalf("expected valid, got %v", errs)
				}
				return
			}
			if len(errs) == 0 {
				t.Fatal("expected validation errors")
			}
			var ve *ValidationError
			if !errors.As(errs[0], &ve) {
				t.Fatalf("expected *ValidationError, got %T", errs[0])
			}
			if ve.Path != tt.wantPath {
				t.Errorf("Path: got %q, want %q", ve.Path, tt.wantPath)
			}
		})
	}
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	if _, err := Parse([]byte("{not json")); err == nil || !strings.Contains(err.Error(), "parse archive") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestParseRejectsImpossibleDate(t *testing.T) {
	data := `{"schema_version":1,"tasks":[{"title":"a","start":"2025-13-40 10:00:00","end":"2025-01-01 11:00:00","active":true}]}`
	_, err := Parse([]byte(data))
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Path != "tasks[0]" {
		t.Errorf("expected tasks[0] validation error, got %v", err)
	}
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	f := &File{
		SchemaVersion: SchemaVersion,
		Tasks: []Record{
			{ID: 40, Title: " open ", Start: "2025-01-01 09:00:00", End: "2025-01-01 12:00:00", Active: true},
			{ID: 41, Title: "closed", Start: "2025-01-01 09:00:00", End: "2025-01-01 10:30:00", Active: false},
		},
	}

	n, err := Import(ctx, s, f)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if n != 2 {
		t.Errorf("imported: got %d, want 2", n)
	}

	tasks, _ := s.List(ctx)
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].Title != "closed" || tasks[0].Active {
		t.Errorf("first task: got %+v", tasks[0])
	}
	if task.FormatTime(tasks[0].End) != "2025-01-01 10:30:00" {
		t.Errorf("completed end: got %s", task.FormatTime(tasks[0].End))
	}
	if tasks[1].Title != "open" || !tasks[1].Active {
		t.Errorf("second task: got %+v", tasks[1])
	}
	if tasks[1].ID == 40 {
		t.Error("expected store-assigned id, got archived id")
	}
}
