// Package store holds the canonical, ordered list of tasks in memory.
//
// TaskStore is the single writer of task state. Every mutator holds the
// store's write lock for its whole duration, so a reader such as the
// auto-save timer never observes a half-applied change. Filters are pure
// reads over the full canonical list and return fresh copies.
package store

import (
	"strings"
	"sync"
	"time"

	"github.com/mesh-intelligence/todo/pkg/types"
)

// Fields reported in change notifications.
const (
	FieldTitle     = "title"
	FieldCompleted = "isCompleted"
)

// Change describes a single observable field change on a task.
type Change struct {
	TaskID string
	Field  string // FieldTitle or FieldCompleted
	Task   types.Task
}

// TaskStore owns the canonical task sequence.
type TaskStore struct {
	mu    sync.RWMutex
	tasks []types.Task

	// rev increments on every dirtying mutation; savedRev is the revision
	// last confirmed on disk. The store is dirty iff rev != savedRev.
	rev      uint64
	savedRev uint64

	obsMu     sync.Mutex
	observers map[int]func(Change)
	nextObs   int

	overdueIncludesCompleted bool
	onMutate                 func()
	now                      func() time.Time
}

// Option configures a TaskStore.
type Option func(*TaskStore)

// WithOverdueIncludesCompleted makes FilterOverdue return completed tasks
// too. The default excludes them.
func WithOverdueIncludesCompleted(include bool) Option {
	return func(s *TaskStore) { s.overdueIncludesCompleted = include }
}

// WithMutationHook registers fn to run after every mutation that marks the
// store dirty. fn runs after the lock is released and may read the store.
func WithMutationHook(fn func()) Option {
	return func(s *TaskStore) { s.onMutate = fn }
}

// WithClock overrides the time source used by the convenience filters.
func WithClock(now func() time.Time) Option {
	return func(s *TaskStore) { s.now = now }
}

// New creates an empty, clean TaskStore.
func New(opts ...Option) *TaskStore {
	s := &TaskStore{
		observers: make(map[int]func(Change)),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetMutationHook replaces the mutation hook. Passing nil removes it.
func (s *TaskStore) SetMutationHook(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onMutate = fn
}

// Add appends a new task and returns a copy of it.
func (s *TaskStore) Add(title, tags string, due *time.Time) types.Task {
	task := types.NewTask(title, tags, due)

	s.mu.Lock()
	s.tasks = append(s.tasks, task)
	s.rev++
	s.mu.Unlock()

	s.afterMutation(nil)
	return task.Clone()
}

// Remove deletes the task with the given id. It reports whether a task was
// removed.
func (s *TaskStore) Remove(id string) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	s.rev++
	s.mu.Unlock()

	s.afterMutation(nil)
	return true
}

// SetCompleted sets the completion flag of a task. It is a no-op when the
// id is unknown or the value is unchanged; otherwise it marks the store
// dirty, notifies observers, and returns true.
func (s *TaskStore) SetCompleted(id string, value bool) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 || s.tasks[i].IsCompleted == value {
		s.mu.Unlock()
		return false
	}
	s.tasks[i].IsCompleted = value
	s.rev++
	change := Change{TaskID: id, Field: FieldCompleted, Task: s.tasks[i].Clone()}
	s.mu.Unlock()

	s.afterMutation([]Change{change})
	return true
}

// CompleteAll marks every task completed and returns how many changed.
func (s *TaskStore) CompleteAll() int {
	s.mu.Lock()
	var changes []Change
	for i := range s.tasks {
		if s.tasks[i].IsCompleted {
			continue
		}
		s.tasks[i].IsCompleted = true
		changes = append(changes, Change{TaskID: s.tasks[i].ID, Field: FieldCompleted, Task: s.tasks[i].Clone()})
	}
	if len(changes) > 0 {
		s.rev++
	}
	s.mu.Unlock()

	if len(changes) > 0 {
		s.afterMutation(changes)
	}
	return len(changes)
}

// ClearCompleted removes all completed tasks and returns how many were
// removed. The relative order of the remaining tasks is preserved.
func (s *TaskStore) ClearCompleted() int {
	return len(s.RemoveCompleted())
}

// RemoveCompleted removes all completed tasks and returns copies of them in
// their original order.
func (s *TaskStore) RemoveCompleted() []types.Task {
	s.mu.Lock()
	var removed []types.Task
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.IsCompleted {
			removed = append(removed, t)
			continue
		}
		kept = append(kept, t)
	}
	// Drop references held past the new length.
	for i := len(kept); i < len(s.tasks); i++ {
		s.tasks[i] = types.Task{}
	}
	s.tasks = kept
	if len(removed) > 0 {
		s.rev++
	}
	s.mu.Unlock()

	if len(removed) > 0 {
		s.afterMutation(nil)
	}
	return removed
}

// UpdateTitle replaces a task's title. A blank title returns ErrBlankTitle
// and changes nothing; an unknown id returns false with no error.
func (s *TaskStore) UpdateTitle(id, title string) (bool, error) {
	if strings.TrimSpace(title) == "" {
		return false, types.ErrBlankTitle
	}

	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}
	if s.tasks[i].Title == title {
		s.mu.Unlock()
		return false, nil
	}
	s.tasks[i].Title = title
	s.rev++
	change := Change{TaskID: id, Field: FieldTitle, Task: s.tasks[i].Clone()}
	s.mu.Unlock()

	s.afterMutation([]Change{change})
	return true, nil
}

// Replace installs tasks as the canonical sequence, typically right after a
// recovery load. Tags are normalized and blank or duplicate IDs are given
// fresh ones. The store is left clean unless an ID had to be repaired.
func (s *TaskStore) Replace(tasks []types.Task) {
	seen := make(map[string]bool, len(tasks))
	next := make([]types.Task, 0, len(tasks))
	repaired := false
	for _, t := range tasks {
		t = t.Clone()
		t.Tags = types.NormalizeTags(t.Tags)
		if t.ID == "" || seen[t.ID] {
			t.ID = types.NewID()
			repaired = true
		}
		seen[t.ID] = true
		next = append(next, t)
	}

	s.mu.Lock()
	s.tasks = next
	s.rev++
	if !repaired {
		s.savedRev = s.rev
	}
	s.mu.Unlock()
}

// Get returns a copy of the task with the given id.
func (s *TaskStore) Get(id string) (types.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return types.Task{}, false
	}
	return s.tasks[i].Clone(), true
}

// Tasks returns a copy of the canonical sequence.
func (s *TaskStore) Tasks() []types.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked(nil)
}

// Len returns the number of tasks.
func (s *TaskStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// IsDirty reports whether any mutation happened since the last successful
// save.
func (s *TaskStore) IsDirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rev != s.savedRev
}

// Snapshot returns a copy of the canonical sequence and the revision it
// reflects. Pass the revision to MarkSaved once the copy is on disk.
func (s *TaskStore) Snapshot() ([]types.Task, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked(nil), s.rev
}

// MarkSaved records that the snapshot at rev reached disk. The store
// becomes clean only if nothing changed after that snapshot.
func (s *TaskStore) MarkSaved(rev uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rev > s.savedRev && rev <= s.rev {
		s.savedRev = rev
	}
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (s *TaskStore) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			delete(s.observers, id)
			s.obsMu.Unlock()
		})
	}
}

func (s *TaskStore) afterMutation(changes []Change) {
	if len(changes) > 0 {
		s.obsMu.Lock()
		fns := make([]func(Change), 0, len(s.observers))
		for _, fn := range s.observers {
			fns = append(fns, fn)
		}
		s.obsMu.Unlock()

		for _, c := range changes {
			for _, fn := range fns {
				fn(c)
			}
		}
	}

	s.mu.RLock()
	hook := s.onMutate
	s.mu.RUnlock()
	if hook != nil {
		hook()
	}
}

// indexLocked returns the position of id or -1. Caller holds s.mu.
func (s *TaskStore) indexLocked(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// copyLocked returns clones of the tasks accepted by keep (all when keep is
// nil). Caller holds s.mu.
func (s *TaskStore) copyLocked(keep func(types.Task) bool) []types.Task {
	out := make([]types.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if keep == nil || keep(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}
