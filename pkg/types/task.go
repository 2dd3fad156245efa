package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task is a single to-do item.
type Task struct {
	ID          string     // UUID v7, generated on creation. Never changes.
	Title       string     // Display text (non-empty on creation).
	Tags        string     // Normalized, comma-space joined (see NormalizeTags).
	DueDate     *time.Time // Optional; only the calendar day is meaningful.
	IsCompleted bool       // Defaults to false.
}

// NewTask returns a task with a fresh ID and normalized tags.
func NewTask(title, tags string, due *time.Time) Task {
	return Task{
		ID:      NewID(),
		Title:   title,
		Tags:    NormalizeTags(tags),
		DueDate: cloneTime(due),
	}
}

// NewID generates a new UUID v7 for task IDs.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}

// TagList returns the normalized tags as a slice. An empty Tags string
// yields an empty (non-nil) slice.
func (t Task) TagList() []string {
	if t.Tags == "" {
		return []string{}
	}
	parts := strings.Split(t.Tags, tagSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// HasDueDate reports whether a due date is set.
func (t Task) HasDueDate() bool {
	return t.DueDate != nil
}

// DueDay returns the calendar day of the due date. ok is false when no due
// date is set.
func (t Task) DueDay() (day time.Time, ok bool) {
	if t.DueDate == nil {
		return time.Time{}, false
	}
	return Day(*t.DueDate), true
}

// IsOverdue reports whether the task's due day is strictly before the
// calendar day of now. Completed tasks are never overdue unless
// includeCompleted is set.
func (t Task) IsOverdue(now time.Time, includeCompleted bool) bool {
	if t.IsCompleted && !includeCompleted {
		return false
	}
	day, ok := t.DueDay()
	if !ok {
		return false
	}
	return day.Before(Day(now))
}

// Clone returns a deep copy; the due date pointer is not shared.
func (t Task) Clone() Task {
	t.DueDate = cloneTime(t.DueDate)
	return t
}

// Day truncates t to its calendar day. The year, month, and day are taken
// in t's own location and returned as midnight UTC, so two times compare
// equal exactly when their wall-clock dates match.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
