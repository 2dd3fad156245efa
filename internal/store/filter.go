package store

import (
	"strings"
	"time"

	"github.com/mesh-intelligence/todo/pkg/types"
)

// FilterByTag returns tasks whose normalized tags contain tag as a
// case-insensitive substring. The tag is trimmed first; a blank tag returns
// ErrBlankTag rather than matching everything.
func (s *TaskStore) FilterByTag(tag string) ([]types.Task, error) {
	needle := strings.ToLower(strings.TrimSpace(tag))
	if needle == "" {
		return nil, types.ErrBlankTag
	}
	return s.filter(func(t types.Task) bool {
		return types.MatchesTag(t.Tags, needle)
	}), nil
}

// FilterDueOn returns tasks due on the calendar day of date.
func (s *TaskStore) FilterDueOn(date time.Time) []types.Task {
	want := types.Day(date)
	return s.filter(func(t types.Task) bool {
		day, ok := t.DueDay()
		return ok && day.Equal(want)
	})
}

// FilterDueWithin returns tasks whose due day falls in [start, end],
// inclusive on both ends. A start after end matches nothing.
func (s *TaskStore) FilterDueWithin(start, end time.Time) []types.Task {
	from, to := types.Day(start), types.Day(end)
	return s.filter(func(t types.Task) bool {
		day, ok := t.DueDay()
		return ok && !day.Before(from) && !day.After(to)
	})
}

// FilterOverdue returns incomplete tasks due strictly before now's calendar
// day. With WithOverdueIncludesCompleted, completed tasks are included.
func (s *TaskStore) FilterOverdue(now time.Time) []types.Task {
	s.mu.RLock()
	include := s.overdueIncludesCompleted
	s.mu.RUnlock()
	return s.filter(func(t types.Task) bool {
		return t.IsOverdue(now, include)
	})
}

// DueToday returns tasks due on the store clock's current day.
func (s *TaskStore) DueToday() []types.Task {
	return s.FilterDueOn(s.now())
}

// DueThisWeek returns tasks due from today through seven days from today.
func (s *TaskStore) DueThisWeek() []types.Task {
	today := s.now()
	return s.FilterDueWithin(today, today.AddDate(0, 0, 7))
}

// Overdue returns FilterOverdue for the store clock's current time.
func (s *TaskStore) Overdue() []types.Task {
	return s.FilterOverdue(s.now())
}

func (s *TaskStore) filter(keep func(types.Task) bool) []types.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked(keep)
}
