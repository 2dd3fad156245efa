// Package archive keeps a SQLite history of tasks removed by
// clear-completed. The archive is append-only and never feeds back into the
// task list.
package archive

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/todo/pkg/types"
)

// FileName is the archive database inside the data directory.
const FileName = "archive.db"

// clearedAtLayout always writes nine fractional digits. RFC3339Nano drops
// trailing zeros, and "05Z" would then sort after "05.5Z".
const clearedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrClosed is returned by operations on a closed archive.
var ErrClosed = errors.New("archive is closed")

// Entry is one archived task.
type Entry struct {
	ArchiveID int64
	Task      types.Task
	ClearedAt time.Time
}

// Archive is an open archive database. It is safe for concurrent use.
type Archive struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the archive in dataDir.
func Open(dataDir string) (*Archive, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	path := filepath.Join(dataDir, FileName)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	// One connection keeps pragmas in effect and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect archive %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure archive: %w", err)
	}
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create archive schema: %w", err)
		}
	}

	return &Archive{db: db, path: path}, nil
}

// Path returns the database file path.
func (a *Archive) Path() string { return a.path }

// Record appends tasks with the given clear time in one transaction.
// Recording an empty slice is a no-op.
func (a *Archive) Record(tasks []types.Task, clearedAt time.Time) error {
	if len(tasks) == 0 {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db == nil {
		return ErrClosed
	}

	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("begin archive: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertArchivedTask)
	if err != nil {
		return fmt.Errorf("prepare archive insert: %w", err)
	}
	defer stmt.Close()

	cleared := clearedAt.UTC().Format(clearedAtLayout)
	for _, t := range tasks {
		var due sql.NullString
		if t.DueDate != nil {
			due = sql.NullString{String: t.DueDate.Format(time.RFC3339Nano), Valid: true}
		}
		if _, err := stmt.Exec(t.ID, t.Title, t.Tags, due, t.IsCompleted, cleared); err != nil {
			return fmt.Errorf("archive task %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive: %w", err)
	}
	return nil
}

// List returns archived tasks, most recently cleared first. A non-positive
// limit returns everything.
func (a *Archive) List(limit int) ([]Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db == nil {
		return nil, ErrClosed
	}

	query := selectArchivedTasks
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := a.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query archive: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	return entries, nil
}

// Count returns the number of archived tasks.
func (a *Archive) Count() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db == nil {
		return 0, ErrClosed
	}

	var n int
	if err := a.db.QueryRow(countArchivedTasks).Scan(&n); err != nil {
		return 0, fmt.Errorf("count archive: %w", err)
	}
	return n, nil
}

// Close closes the database. Close is idempotent.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e         Entry
		due       sql.NullString
		completed bool
		cleared   string
	)
	if err := rows.Scan(&e.ArchiveID, &e.Task.ID, &e.Task.Title, &e.Task.Tags, &due, &completed, &cleared); err != nil {
		return Entry{}, fmt.Errorf("scan archive row: %w", err)
	}
	e.Task.IsCompleted = completed

	if due.Valid {
		d, err := time.Parse(time.RFC3339Nano, due.String)
		if err != nil {
			return Entry{}, fmt.Errorf("archive row %d due date: %w", e.ArchiveID, err)
		}
		e.Task.DueDate = &d
	}

	t, err := time.Parse(time.RFC3339Nano, cleared)
	if err != nil {
		return Entry{}, fmt.Errorf("archive row %d cleared_at: %w", e.ArchiveID, err)
	}
	e.ClearedAt = t
	return e, nil
}
