// JSON record structure and codec for the task file.
package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/todo/pkg/types"
)

// taskJSON represents one task in tasks.json. Field absence on read
// defaults to the zero value; a blank id is replaced by a fresh one.
type taskJSON struct {
	ID          string  `json:"id" yaml:"id" toml:"id"`
	Title       string  `json:"title" yaml:"title" toml:"title"`
	Tags        string  `json:"tags" yaml:"tags" toml:"tags"`
	DueDate     *string `json:"dueDate" yaml:"dueDate" toml:"dueDate,omitempty"`
	IsCompleted bool    `json:"isCompleted" yaml:"isCompleted" toml:"isCompleted"`
}

// taskListJSON is the wrapped form {"tasks": [...]} accepted on read.
type taskListJSON struct {
	Tasks []taskJSON `json:"tasks"`
}

// dueDateLayouts are tried in order when reading dueDate. Values without a
// UTC offset are wall-clock times in the local zone.
var dueDateLayouts = []struct {
	layout string
	local  bool
}{
	{time.RFC3339Nano, false},
	{"2006-01-02T15:04:05.999999999", true},
	{time.DateOnly, true},
}

var errEmptyDocument = errors.New("empty document")

func toRecord(t types.Task) taskJSON {
	rec := taskJSON{
		ID:          t.ID,
		Title:       t.Title,
		Tags:        t.Tags,
		IsCompleted: t.IsCompleted,
	}
	if t.DueDate != nil {
		s := t.DueDate.Format(time.RFC3339Nano)
		rec.DueDate = &s
	}
	return rec
}

func fromRecord(rec taskJSON) (types.Task, error) {
	t := types.Task{
		ID:          rec.ID,
		Title:       rec.Title,
		Tags:        types.NormalizeTags(rec.Tags),
		IsCompleted: rec.IsCompleted,
	}
	if t.ID == "" {
		t.ID = types.NewID()
	}
	if rec.DueDate != nil && strings.TrimSpace(*rec.DueDate) != "" {
		due, err := parseDueDate(*rec.DueDate)
		if err != nil {
			return types.Task{}, err
		}
		t.DueDate = &due
	}
	return t, nil
}

func parseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, l := range dueDateLayouts {
		var (
			t   time.Time
			err error
		)
		if l.local {
			t, err = time.ParseInLocation(l.layout, s, time.Local)
		} else {
			t, err = time.Parse(l.layout, s)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("dueDate %q is not an ISO-8601 date or date-time", s)
}

func toRecords(tasks []types.Task) []taskJSON {
	recs := make([]taskJSON, 0, len(tasks))
	for _, t := range tasks {
		recs = append(recs, toRecord(t))
	}
	return recs
}

// encodeTasks marshals tasks as an indented JSON array. An empty sequence
// is written as [] rather than null.
func encodeTasks(tasks []types.Task) ([]byte, error) {
	data, err := json.MarshalIndent(toRecords(tasks), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// decodeTasks parses a task document. The canonical form is an array of
// task objects; null and an object without a "tasks" list both decode to an
// empty sequence. Unknown fields are ignored.
func decodeTasks(data []byte) ([]types.Task, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errEmptyDocument
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	var recs []taskJSON
	switch doc.(type) {
	case nil:
		return []types.Task{}, nil
	case map[string]any:
		var wrapped taskListJSON
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, err
		}
		recs = wrapped.Tasks
	default:
		if err := json.Unmarshal(data, &recs); err != nil {
			return nil, err
		}
	}

	tasks := make([]types.Task, 0, len(recs))
	for i, rec := range recs {
		t, err := fromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", i, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}
