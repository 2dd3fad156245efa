package persist

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mesh-intelligence/todo/pkg/types"
)

// Snapshotter is the view of the task store the auto-saver needs.
// *store.TaskStore implements it.
type Snapshotter interface {
	IsDirty() bool
	Snapshot() ([]types.Task, uint64)
	MarkSaved(rev uint64)
}

// Saver writes a task sequence. *Engine implements it.
type Saver interface {
	Save(tasks []types.Task) error
}

// AutoSaver flushes a Snapshotter to a Saver on a fixed interval and on
// demand. Saves are serialized; the snapshot is taken under the store's
// lock, so a save never sees a list mid-mutation.
type AutoSaver struct {
	saver    Saver
	src      Snapshotter
	interval time.Duration
	logger   *log.Logger
	onSave   func(saved int, err error)

	saveMu sync.Mutex // serializes snapshot+save+mark

	timerMu sync.Mutex
	timer   *time.Timer
}

// AutoSaverOption configures an AutoSaver.
type AutoSaverOption func(*AutoSaver)

// WithAutoSaveLogger sets the logger for failed ticks.
func WithAutoSaveLogger(l *log.Logger) AutoSaverOption {
	return func(a *AutoSaver) { a.logger = l }
}

// OnSave registers fn to receive the outcome of every save attempt: the
// number of tasks written, or the error. fn runs on the saving goroutine
// and must not call back into the AutoSaver.
func OnSave(fn func(saved int, err error)) AutoSaverOption {
	return func(a *AutoSaver) { a.onSave = fn }
}

// NewAutoSaver creates a stopped auto-saver. A non-positive interval uses
// types.DefaultAutoSaveInterval.
func NewAutoSaver(saver Saver, src Snapshotter, interval time.Duration, opts ...AutoSaverOption) *AutoSaver {
	if interval <= 0 {
		interval = types.DefaultAutoSaveInterval
	}
	a := &AutoSaver{
		saver:    saver,
		src:      src,
		interval: interval,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Interval returns the timer period.
func (a *AutoSaver) Interval() time.Duration { return a.interval }

// Start arms the interval timer. Calling Start on a running saver is a
// no-op.
func (a *AutoSaver) Start() {
	a.timerMu.Lock()
	defer a.timerMu.Unlock()

	if a.timer != nil {
		return // already running
	}
	a.timer = time.AfterFunc(a.interval, a.tick)
}

// Stop disarms the timer. It does not flush; call Flush afterwards if
// pending changes must reach disk. Idempotent.
func (a *AutoSaver) Stop() {
	a.timerMu.Lock()
	defer a.timerMu.Unlock()

	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// Running reports whether the timer is armed.
func (a *AutoSaver) Running() bool {
	a.timerMu.Lock()
	defer a.timerMu.Unlock()
	return a.timer != nil
}

// Flush saves if the source is dirty. It reports whether a save happened.
// On failure the source stays dirty so the next tick or flush retries.
func (a *AutoSaver) Flush() (bool, error) {
	a.saveMu.Lock()
	if !a.src.IsDirty() {
		a.saveMu.Unlock()
		return false, nil
	}
	n, err := a.saveLocked()
	a.saveMu.Unlock()

	a.report(n, err)
	return err == nil, err
}

// SaveNow saves unconditionally, dirty or not.
func (a *AutoSaver) SaveNow() error {
	a.saveMu.Lock()
	n, err := a.saveLocked()
	a.saveMu.Unlock()

	a.report(n, err)
	return err
}

func (a *AutoSaver) saveLocked() (int, error) {
	tasks, rev := a.src.Snapshot()
	if err := a.saver.Save(tasks); err != nil {
		return 0, err
	}
	a.src.MarkSaved(rev)
	return len(tasks), nil
}

func (a *AutoSaver) report(n int, err error) {
	if a.onSave != nil {
		a.onSave(n, err)
	}
}

func (a *AutoSaver) tick() {
	if _, err := a.Flush(); err != nil {
		a.logger.Warn("auto-save failed", "err", err)
	}

	a.timerMu.Lock()
	if a.timer != nil {
		a.timer.Reset(a.interval)
	}
	a.timerMu.Unlock()
}
