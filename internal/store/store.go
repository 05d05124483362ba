// Package store persists task records.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nibzard/tasklist/internal/task"
)

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store is a durable collection of task records addressable by ID.
//
// List returns every record ordered by end time ascending. Delete and
// Complete are no-ops for IDs that do not exist.
type Store interface {
	task.Writer
	List(ctx context.Context) ([]task.Task, error)
	Close() error
}

// Open returns the store backend named by driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch NormalizeDriver(driver) {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return OpenSQLite(ctx, dsn)
	case DriverPostgres:
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q (expected memory|sqlite|postgres)", driver)
	}
}

// NormalizeDriver maps driver aliases to their canonical names.
func NormalizeDriver(driver string) string {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "memory", "mem", "volatile":
		return DriverMemory
	case "sqlite", "sqlite3":
		return DriverSQLite
	case "postgres", "postgresql", "pg", "pgx":
		return DriverPostgres
	}
	return ""
}

// newTask builds the record written by Create.
func newTask(id int64, title, description string, start, end time.Time) task.Task {
	return task.Task{
		ID:          id,
		Title:       title,
		Description: description,
		Start:       task.Truncate(start),
		End:         task.Truncate(end),
		Active:      true,
	}
}
