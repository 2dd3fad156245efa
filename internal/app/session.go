// Package app wires the task store, the persistence engine, the auto-saver,
// and the archive into a Session that front ends attach to a data
// directory.
package app

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/mesh-intelligence/todo/internal/archive"
	"github.com/mesh-intelligence/todo/internal/persist"
	"github.com/mesh-intelligence/todo/internal/store"
	"github.com/mesh-intelligence/todo/pkg/types"
)

// Session errors.
var (
	ErrDetached        = errors.New("session is detached")
	ErrArchiveDisabled = errors.New("archive is disabled")
)

// Session is an attached task list: tasks loaded from the data directory,
// kept in a store, and saved back according to the sync strategy.
type Session struct {
	mu       sync.Mutex
	attached bool

	cfg      types.Config
	logger   *log.Logger
	fs       afero.Fs
	clock    func() time.Time
	onSave   func(saved int, err error)
	store    *store.TaskStore
	engine   *persist.Engine
	saver    *persist.AutoSaver
	recovery persist.Recovery

	archive *archive.Archive
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger shared by the engine and auto-saver.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithFs sets the filesystem for the task files. The archive always uses
// the OS filesystem.
func WithFs(fsys afero.Fs) Option {
	return func(s *Session) { s.fs = fsys }
}

// WithClock sets the time source for date filters and archive timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.clock = now }
}

// WithOnSave registers fn to receive the outcome of every save, whether
// write-through, timer, explicit, or on detach.
func WithOnSave(fn func(saved int, err error)) Option {
	return func(s *Session) { s.onSave = fn }
}

// Attach validates cfg, loads the task list with recovery, and starts
// saving according to cfg's sync strategy. Loading never fails; inspect
// Recovery for how the list was obtained.
func Attach(cfg types.Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		cfg:    cfg,
		logger: log.New(io.Discard),
		fs:     afero.NewOsFs(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine = persist.NewEngine(cfg.DataDir, persist.WithFs(s.fs), persist.WithLogger(s.logger))
	s.store = store.New(
		store.WithOverdueIncludesCompleted(cfg.OverdueIncludesCompleted),
		store.WithClock(s.clock),
	)

	tasks, rec := s.engine.LoadWithRecovery()
	s.store.Replace(tasks)
	s.recovery = rec
	s.logger.Debug("session attached", "dir", s.engine.DataDir(), "source", rec.Source, "count", len(tasks))

	saverOpts := []persist.AutoSaverOption{persist.WithAutoSaveLogger(s.logger)}
	if s.onSave != nil {
		saverOpts = append(saverOpts, persist.OnSave(s.onSave))
	}
	s.saver = persist.NewAutoSaver(s.engine, s.store, cfg.Interval(), saverOpts...)

	switch cfg.SyncStrategy() {
	case types.SyncImmediate:
		s.store.SetMutationHook(s.writeThrough)
		s.saver.Start()
	case types.SyncInterval:
		s.saver.Start()
	case types.SyncOnClose:
		// Saved by Save and Detach only.
	}

	s.attached = true
	return s, nil
}

// writeThrough runs after every store mutation under SyncImmediate.
func (s *Session) writeThrough() {
	if _, err := s.saver.Flush(); err != nil {
		s.logger.Warn("write-through save failed", "err", err)
	}
}

// Detach stops the auto-save timer, flushes pending changes, and closes
// the archive. Detach is idempotent. The store stays readable afterwards
// but nothing is saved any more.
func (s *Session) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil
	}
	s.attached = false

	s.store.SetMutationHook(nil)
	s.saver.Stop()

	var errs []error
	if _, err := s.saver.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("flush pending changes: %w", err))
	}
	if s.archive != nil {
		if err := s.archive.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close archive: %w", err))
		}
		s.archive = nil
	}
	return errors.Join(errs...)
}

// Attached reports whether the session is attached.
func (s *Session) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached
}

// Store returns the task store.
func (s *Session) Store() *store.TaskStore { return s.store }

// Engine returns the persistence engine.
func (s *Session) Engine() *persist.Engine { return s.engine }

// Config returns the configuration the session was attached with.
func (s *Session) Config() types.Config { return s.cfg }

// Recovery reports how the task list was loaded.
func (s *Session) Recovery() persist.Recovery { return s.recovery }

// AutoSaveRunning reports whether the interval timer is armed.
func (s *Session) AutoSaveRunning() bool { return s.saver.Running() }

// Save writes the task list now, dirty or not.
func (s *Session) Save() error {
	if !s.Attached() {
		return ErrDetached
	}
	return s.saver.SaveNow()
}

// ClearCompleted removes completed tasks and records them in the archive
// when archiving is enabled. Archive failures are logged and do not undo
// the clear.
func (s *Session) ClearCompleted() (int, error) {
	if !s.Attached() {
		return 0, ErrDetached
	}

	removed := s.store.RemoveCompleted()
	if len(removed) == 0 || !s.cfg.Archive {
		return len(removed), nil
	}

	a, err := s.Archive()
	if err == nil {
		err = a.Record(removed, s.clock())
	}
	if err != nil {
		s.logger.Warn("archiving cleared tasks failed", "count", len(removed), "err", err)
	}
	return len(removed), nil
}

// Archive returns the archive, opening it on first use.
func (s *Session) Archive() (*archive.Archive, error) {
	if !s.cfg.Archive {
		return nil, ErrArchiveDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil, ErrDetached
	}
	if s.archive == nil {
		a, err := archive.Open(s.engine.DataDir())
		if err != nil {
			return nil, err
		}
		s.archive = a
	}
	return s.archive, nil
}
