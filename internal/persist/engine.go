// Package persist stores the task list as a JSON document with a single
// backup copy, recovers from missing or corrupted files on load, and runs
// the auto-save timer.
//
// The write sequence is: ensure the data directory, copy the current
// primary file over the backup, overwrite the primary. The primary write is
// a direct overwrite; a crash part-way through leaves a truncated primary
// and a good backup, which LoadWithRecovery then falls back to.
package persist

import (
	"errors"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/mesh-intelligence/todo/pkg/types"
)

// File names inside the data directory.
const (
	PrimaryFileName = "tasks.json"
	BackupFileName  = "tasks.backup.json"
	CorruptFileName = "tasks.corrupt.json"
)

// Engine reads and writes the task file and its backup.
type Engine struct {
	fs          afero.Fs
	dataDir     string
	primaryPath string
	backupPath  string
	corruptPath string
	logger      *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithFs sets the filesystem. The default is the OS filesystem.
func WithFs(fsys afero.Fs) Option {
	return func(e *Engine) { e.fs = fsys }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine for dataDir. Nothing is touched on disk
// until the first Save or Load.
func NewEngine(dataDir string, opts ...Option) *Engine {
	if dataDir == "" {
		dataDir = "."
	}
	e := &Engine{
		fs:          afero.NewOsFs(),
		dataDir:     dataDir,
		primaryPath: filepath.Join(dataDir, PrimaryFileName),
		backupPath:  filepath.Join(dataDir, BackupFileName),
		corruptPath: filepath.Join(dataDir, CorruptFileName),
		logger:      log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DataDir returns the data directory.
func (e *Engine) DataDir() string { return e.dataDir }

// PrimaryPath returns the path of tasks.json.
func (e *Engine) PrimaryPath() string { return e.primaryPath }

// BackupPath returns the path of tasks.backup.json.
func (e *Engine) BackupPath() string { return e.backupPath }

// CorruptPath returns the path where an unreadable primary is kept before
// the next save overwrites it.
func (e *Engine) CorruptPath() string { return e.corruptPath }

// Fs returns the engine's filesystem.
func (e *Engine) Fs() afero.Fs { return e.fs }

// Save writes tasks to the primary file. Any existing primary is first
// copied to the backup path; a failed copy is logged and does not stop the
// save. A primary that no longer decodes is never discarded: it is kept in
// tasks.corrupt.json and, when the backup is not readable, in the backup
// too. If neither copy can be written the save fails and the primary is
// left as it was. The returned error, if any, is a *types.PathError matching
// ErrPermission or ErrIO, or unclassified for encoding failures. On error
// the primary file is either untouched or partially written; the backup
// still holds the previous contents.
func (e *Engine) Save(tasks []types.Task) error {
	if err := e.ensureDataDir(); err != nil {
		return err
	}

	if err := e.backupPrimary(); err != nil {
		return err
	}

	data, err := encodeTasks(tasks)
	if err != nil {
		return &types.PathError{Op: "encode", Path: e.primaryPath, Err: err}
	}

	if err := afero.WriteFile(e.fs, e.primaryPath, data, 0o644); err != nil {
		return fileError("write", e.primaryPath, err)
	}

	e.logger.Debug("tasks saved", "path", e.primaryPath, "count", len(tasks))
	return nil
}

// Load reads and decodes the task file at path. Errors match
// ErrFileNotFound, ErrParse, ErrPermission, or ErrIO.
func (e *Engine) Load(path string) ([]types.Task, error) {
	data, err := afero.ReadFile(e.fs, path)
	if err != nil {
		return nil, fileError("read", path, err)
	}
	tasks, err := decodeTasks(data)
	if err != nil {
		return nil, parseError(path, err)
	}
	return tasks, nil
}

// LoadWithRecovery loads the primary file, falling back to the backup when
// the primary is missing or unreadable. It never fails: when neither file
// yields tasks it returns an empty sequence and a Recovery describing why.
func (e *Engine) LoadWithRecovery() ([]types.Task, Recovery) {
	tasks, primaryErr := e.Load(e.primaryPath)
	if primaryErr == nil {
		return tasks, Recovery{Source: SourcePrimary, Path: e.primaryPath, Count: len(tasks)}
	}

	primaryMissing := errors.Is(primaryErr, types.ErrFileNotFound)
	if !primaryMissing {
		e.logger.Warn("task file unreadable, trying backup", "path", e.primaryPath, "err", primaryErr)
	}

	tasks, backupErr := e.Load(e.backupPath)
	if backupErr == nil {
		rec := Recovery{Source: SourceBackup, Path: e.backupPath, Count: len(tasks)}
		if !primaryMissing {
			rec.Err = primaryErr
		}
		e.logger.Warn("tasks restored from backup", "path", e.backupPath, "count", len(tasks))
		return tasks, rec
	}

	backupMissing := errors.Is(backupErr, types.ErrFileNotFound)
	var rec Recovery
	switch {
	case primaryMissing && backupMissing:
		rec = Recovery{Source: SourceFresh}
	case primaryMissing:
		rec = Recovery{Source: SourceBackupCorrupted, Err: backupErr}
	case backupMissing:
		rec = Recovery{Source: SourcePrimaryCorrupted, Err: primaryErr}
	default:
		rec = Recovery{Source: SourceBothCorrupted, Err: errors.Join(primaryErr, backupErr)}
	}
	if rec.Err != nil {
		e.logger.Warn("no usable task file, starting empty", "source", rec.Source, "err", rec.Err)
	}
	return []types.Task{}, rec
}

// ensureDataDir creates the data directory if it does not exist yet.
func (e *Engine) ensureDataDir() error {
	exists, err := afero.DirExists(e.fs, e.dataDir)
	if err != nil {
		return fileError("stat", e.dataDir, err)
	}
	if exists {
		return nil
	}
	if err := e.fs.MkdirAll(e.dataDir, 0o755); err != nil {
		return fileError("mkdir", e.dataDir, err)
	}
	return nil
}

// backupPrimary copies the primary file over the backup. A missing primary
// is not an error, and a failed copy of a readable primary is only logged.
//
// A primary that no longer decodes is copied to tasks.corrupt.json, and
// over the backup too unless the backup still decodes. The returned error
// is non-nil only when such a primary could not be kept anywhere; Save must
// not overwrite it then.
func (e *Engine) backupPrimary() error {
	data, err := afero.ReadFile(e.fs, e.primaryPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			e.logger.Warn("backup copy failed", "path", e.primaryPath, "err", err)
		}
		return nil
	}

	if _, err := decodeTasks(data); err == nil {
		if err := afero.WriteFile(e.fs, e.backupPath, data, 0o644); err != nil {
			e.logger.Warn("backup copy failed", "path", e.backupPath, "err", fileError("write", e.backupPath, err))
		}
		return nil
	}
	return e.preserveUnreadable(data)
}

// preserveUnreadable keeps the bytes of an undecodable primary before it is
// overwritten.
func (e *Engine) preserveUnreadable(data []byte) error {
	kept := false
	var lastErr error

	if err := afero.WriteFile(e.fs, e.corruptPath, data, 0o644); err != nil {
		lastErr = fileError("write", e.corruptPath, err)
		e.logger.Warn("could not keep unreadable task file", "path", e.corruptPath, "err", lastErr)
	} else {
		kept = true
		e.logger.Warn("unreadable task file kept", "path", e.corruptPath)
	}

	if _, err := e.Load(e.backupPath); err == nil {
		if !kept {
			return lastErr
		}
		e.logger.Warn("primary file unreadable, keeping existing backup", "path", e.backupPath)
		return nil
	}
	if err := afero.WriteFile(e.fs, e.backupPath, data, 0o644); err != nil {
		lastErr = fileError("write", e.backupPath, err)
		e.logger.Warn("backup copy failed", "path", e.backupPath, "err", lastErr)
	} else {
		kept = true
	}

	if !kept {
		return lastErr
	}
	return nil
}
