package archive

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/todo/pkg/types"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestOpenCreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	a, err := Open(dir)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, filepath.Join(dir, FileName), a.Path())
	_, err = os.Stat(a.Path())
	assert.NoError(t, err)

	n, err := a.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecordAndList(t *testing.T) {
	a := openTestArchive(t)

	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	require.NoError(t, a.Record([]types.Task{
		{ID: "a", Title: "old one", Tags: "home", IsCompleted: true, DueDate: &due},
	}, first))
	require.NoError(t, a.Record([]types.Task{
		{ID: "b", Title: "newer", IsCompleted: true},
		{ID: "c", Title: "newest", Tags: "work, urgent", IsCompleted: true},
	}, second))

	n, err := a.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	entries, err := a.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "c", entries[0].Task.ID, "latest clear first, later insert first")
	assert.Equal(t, "b", entries[1].Task.ID)
	assert.Equal(t, "a", entries[2].Task.ID)

	assert.True(t, second.Equal(entries[0].ClearedAt))
	assert.Equal(t, "work, urgent", entries[0].Task.Tags)
	assert.Nil(t, entries[0].Task.DueDate)

	old := entries[2].Task
	assert.Equal(t, "old one", old.Title)
	assert.True(t, old.IsCompleted)
	require.NotNil(t, old.DueDate)
	assert.True(t, due.Equal(*old.DueDate))
}

func TestListOrdersSubsecondClears(t *testing.T) {
	a := openTestArchive(t)
	base := time.Date(2026, 4, 1, 9, 0, 5, 0, time.UTC)

	// Inserted newest first so archive_id order cannot mask the sort.
	require.NoError(t, a.Record([]types.Task{{ID: "c", Title: "latest"}}, base.Add(500010*time.Microsecond)))
	require.NoError(t, a.Record([]types.Task{{ID: "b", Title: "middle"}}, base.Add(500*time.Millisecond)))
	require.NoError(t, a.Record([]types.Task{{ID: "a", Title: "earliest"}}, base))

	entries, err := a.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "c", entries[0].Task.ID)
	assert.Equal(t, "b", entries[1].Task.ID)
	assert.Equal(t, "a", entries[2].Task.ID)
	assert.True(t, base.Equal(entries[2].ClearedAt))
}

func TestListLimit(t *testing.T) {
	a := openTestArchive(t)
	now := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, a.Record([]types.Task{{ID: types.NewID(), Title: "t"}}, now.Add(time.Duration(i)*time.Second)))
	}

	entries, err := a.List(2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = a.List(-1)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestRecordEmpty(t *testing.T) {
	a := openTestArchive(t)
	require.NoError(t, a.Record(nil, time.Now()))

	entries, err := a.List(0)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestReopenKeepsHistory(t *testing.T) {
	dir := t.TempDir()
	a, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, a.Record([]types.Task{{ID: "x", Title: "kept"}}, time.Now()))
	require.NoError(t, a.Close())

	a, err = Open(dir)
	require.NoError(t, err)
	defer a.Close()

	n, err := a.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestClosed(t *testing.T) {
	a, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close(), "Close is idempotent")

	assert.ErrorIs(t, a.Record([]types.Task{{ID: "x"}}, time.Now()), ErrClosed)
	_, err = a.List(0)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = a.Count()
	assert.ErrorIs(t, err, ErrClosed)
}
