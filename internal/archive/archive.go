// Package archive reads and writes JSON exports of the task list.
//
// An archive file looks like:
//
//	{
//	  "schema_version": 1,
//	  "exported_at": "2025-01-01 10:00:00",
//	  "tasks": [
//	    {
//	      "id": 1,
//	      "title": "Buy milk",
//	      "description": "",
//	      "start": "2025-01-01 09:00:00",
//	      "end": "2025-01-01 11:00:00",
//	      "active": true
//	    }
//	  ]
//	}
//
// Files are validated against an embedded JSON Schema before they are
// decoded. Timestamps use the task.TimeLayout text format.
package archive

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nibzard/tasklist/internal/task"
)

// SchemaVersion is the archive format version written by Save.
const SchemaVersion = 1

const schemaURL = "https://github.com/nibzard/tasklist/archive.schema.json"

//go:embed schema.json
var schemaJSON []byte

// Record is one task in an archive.
type Record struct {
	ID          int64  `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Active      bool   `json:"active"`
}

// File is the archive document.
type File struct {
	SchemaVersion int      `json:"schema_version"`
	ExportedAt    string   `json:"exported_at,omitempty"`
	Tasks         []Record `json:"tasks"`
}

// ValidationError represents a validation error with context.
type ValidationError struct {
	Path string // dotted path to the error location
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// FromTasks builds an archive of tasks exported at now.
func FromTasks(tasks []task.Task, now time.Time) *File {
	f := &File{
		SchemaVersion: SchemaVersion,
		ExportedAt:    task.FormatTime(now),
		Tasks:         make([]Record, 0, len(tasks)),
	}
	for _, t := range tasks {
		f.Tasks = append(f.Tasks, Record{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Start:       task.FormatTime(t.Start),
			End:         task.FormatTime(t.End),
			Active:      t.Active,
		})
	}
	return f
}

// Load reads, validates and parses an archive from path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	return Parse(data)
}

// Parse validates and decodes archive data.
func Parse(data []byte) (*File, error) {
	if errs := Validate(data); len(errs) > 0 {
		return nil, joinErrors(errs)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse archive: %w", err)
	}
	for i, r := range f.Tasks {
		if _, _, err := r.Times(); err != nil {
			return nil, &ValidationError{Path: fmt.Sprintf("tasks[%d]", i), Err: err}
		}
	}
	return &f, nil
}

// Save writes the archive to path with 2-space indentation.
func (f *File) Save(path string) error {
	data, err := f.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	return nil
}

// Marshal encodes the archive with 2-space indentation and a trailing newline.
func (f *File) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal archive: %w", err)
	}
	return append(data, '\n'), nil
}

// Times parses the record's start and end timestamps.
func (r Record) Times() (start, end time.Time, err error) {
	if start, err = task.ParseTime(r.Start); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start: %w", err)
	}
	if end, err = task.ParseTime(r.End); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end: %w", err)
	}
	return start, end, nil
}

// Import inserts every record through w. Inactive records are completed
// at their archived end time. Archived IDs are not preserved; the store
// assigns fresh ones. It returns the number of imported records.
func Import(ctx context.Context, w task.Writer, f *File) (int, error) {
	imported := 0
	for i, r := range f.Tasks {
		start, end, err := r.Times()
		if err != nil {
			return imported, &ValidationError{Path: fmt.Sprintf("tasks[%d]", i), Err: err}
		}
		id, err := w.Create(ctx, strings.TrimSpace(r.Title), r.Description, start, end)
		if err != nil {
			return imported, fmt.Errorf("import tasks[%d]: %w", i, err)
		}
		if !r.Active {
			if err := w.Complete(ctx, id, end); err != nil {
				return imported, fmt.Errorf("import tasks[%d]: %w", i, err)
			}
		}
		imported++
	}
	return imported, nil
}

// Validate checks data against the archive JSON Schema.
func Validate(data []byte) []error {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return []error{fmt.Errorf("parse archive: %w", err)}
	}

	schema, err := compileSchema()
	if err != nil {
		return []error{err}
	}
	if err := schema.Validate(doc); err != nil {
		return schemaErrors(err)
	}
	return nil
}

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("load archive schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile archive schema: %w", err)
	}
	return schema, nil
}

func schemaErrors(err error) []error {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []error{err}
	}
	var errs []error
	collectSchemaErrors(&errs, ve)
	return errs
}

func collectSchemaErrors(errs *[]error, err *jsonschema.ValidationError) {
	if len(err.Causes) == 0 {
		*errs = append(*errs, &ValidationError{
			Path: jsonPointerToPath(err.InstanceLocation),
			Err:  fmt.Errorf("%s", err.Message),
		})
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(errs, cause)
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	verbs := make([]string, len(errs))
	args := make([]any, len(errs))
	for i, err := range errs {
		verbs[i] = "%w"
		args[i] = err
	}
	return fmt.Errorf("invalid archive: "+strings.Join(verbs, "; "), args...)
}

// jsonPointerToPath converts "/tasks/0/title" to "tasks[0].title".
func jsonPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}

	path := ""
	for _, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part == "" {
			continue
		}
		if idx, err := strconv.Atoi(part); err == nil {
			path += fmt.Sprintf("[%d]", idx)
			continue
		}
		if path == "" {
			path = part
		} else {
			path += "." + part
		}
	}
	return path
}
