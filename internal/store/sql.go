package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/nibzard/tasklist/internal/task"
)

const tableName = "tasks"

var taskColumns = []string{"id", "title", "description", "start_time", "end_time", "active"}

// dialect holds the per-engine differences of the SQL store.
type dialect struct {
	name        string
	driver      string
	placeholder squirrel.PlaceholderFormat
	schema      string
}

var (
	sqliteDialect = dialect{
		name:        DriverSQLite,
		driver:      "sqlite",
		placeholder: squirrel.Question,
		schema: `CREATE TABLE IF NOT EXISTS tasks (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	title       TEXT    NOT NULL,
	description TEXT    NOT NULL DEFAULT '',
	start_time  TEXT    NOT NULL,
	end_time    TEXT    NOT NULL,
	active      INTEGER NOT NULL DEFAULT 1
)`,
	}
	postgresDialect = dialect{
		name:        DriverPostgres,
		driver:      "pgx",
		placeholder: squirrel.Dollar,
		schema: `CREATE TABLE IF NOT EXISTS tasks (
	id          BIGSERIAL PRIMARY KEY,
	title       TEXT    NOT NULL,
	description TEXT    NOT NULL DEFAULT '',
	start_time  TEXT    NOT NULL,
	end_time    TEXT    NOT NULL,
	active      INTEGER NOT NULL DEFAULT 1
)`,
	}
)

// SQL stores tasks in a relational database. Timestamps are kept as
// task.TimeLayout text so they read back exactly as written.
type SQL struct {
	db      *sql.DB
	dialect dialect
	builder squirrel.StatementBuilderType
}

// OpenSQLite opens or creates a SQLite database file at path.
func OpenSQLite(ctx context.Context, path string) (*SQL, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if !strings.HasPrefix(path, "file:") && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	s, err := openSQL(ctx, sqliteDialect, path)
	if err != nil {
		return nil, err
	}
	// A single connection serializes writers and keeps :memory: databases alive.
	s.db.SetMaxOpenConns(1)
	return s, nil
}

// OpenPostgres connects to PostgreSQL using a pgx connection string.
func OpenPostgres(ctx context.Context, dsn string) (*SQL, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres dsn is empty")
	}
	return openSQL(ctx, postgresDialect, dsn)
}

func openSQL(ctx context.Context, d dialect, dsn string) (*SQL, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d.name, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s database: %w", d.name, err)
	}
	if _, err := db.ExecContext(ctx, d.schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create %s schema: %w", d.name, err)
	}
	return &SQL{
		db:      db,
		dialect: d,
		builder: squirrel.StatementBuilder.PlaceholderFormat(d.placeholder),
	}, nil
}

// Driver returns the canonical driver name of the backend.
func (s *SQL) Driver() string {
	return s.dialect.name
}

func (s *SQL) Create(ctx context.Context, title, description string, start, end time.Time) (int64, error) {
	t := newTask(0, title, description, start, end)
	query, args, err := s.builder.
		Insert(tableName).
		Columns("title", "description", "start_time", "end_time", "active").
		Values(t.Title, t.Description, task.FormatTime(t.Start), task.FormatTime(t.End), 1).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}
	var id int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}
	return id, nil
}

func (s *SQL) List(ctx context.Context) ([]task.Task, error) {
	query, args, err := s.builder.
		Select(taskColumns...).
		From(tableName).
		OrderBy("end_time ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]task.Task, 0)
	for rows.Next() {
		var (
			t          task.Task
			start, end string
			active     int64
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &start, &end, &active); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if t.Start, err = task.ParseTime(start); err != nil {
			return nil, fmt.Errorf("task %d start_time: %w", t.ID, err)
		}
		if t.End, err = task.ParseTime(end); err != nil {
			return nil, fmt.Errorf("task %d end_time: %w", t.ID, err)
		}
		t.Active = active != 0
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func (s *SQL) Delete(ctx context.Context, id int64) error {
	query, args, err := s.builder.
		Delete(tableName).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func (s *SQL) Complete(ctx context.Context, id int64, at time.Time) error {
	query, args, err := s.builder.
		Update(tableName).
		Set("end_time", task.FormatTime(task.Truncate(at))).
		Set("active", 0).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return nil
}

func (s *SQL) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
