package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/todo/internal/paths"
	"github.com/mesh-intelligence/todo/internal/persist"
	"github.com/mesh-intelligence/todo/pkg/types"
)

type result struct {
	code   int
	stdout string
	stderr string
}

type env struct {
	configDir string
	dataDir   string
}

func newEnv(t *testing.T) env {
	t.Helper()
	for _, key := range []string{paths.EnvConfigDir, paths.EnvDataDir, "TODO_SYNC", "TODO_ARCHIVE", "TODO_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	root := t.TempDir()
	return env{
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
	}
}

func (e env) run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...)
	code := Run(full, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func (e env) mustRun(t *testing.T, args ...string) result {
	t.Helper()
	r := e.run(t, "", args...)
	require.Equal(t, exitSuccess, r.code, "todo %v\nstdout: %s\nstderr: %s", args, r.stdout, r.stderr)
	return r
}

func (e env) savedTasks(t *testing.T) []types.Task {
	t.Helper()
	tasks, err := persist.NewEngine(e.dataDir).Load(filepath.Join(e.dataDir, persist.PrimaryFileName))
	require.NoError(t, err)
	return tasks
}

func (e env) writeTasks(t *testing.T, doc string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(e.dataDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(e.dataDir, persist.PrimaryFileName), []byte(doc), 0o644))
}

func TestVersion(t *testing.T) {
	e := newEnv(t)
	r := e.mustRun(t, "version")
	assert.Contains(t, r.stdout, "todo v"+Version)
	assert.Contains(t, r.stdout, modulePath)

	_, err := os.Stat(e.configDir)
	assert.True(t, os.IsNotExist(err), "version does not load config")
}

func TestInit(t *testing.T) {
	e := newEnv(t)
	r := e.mustRun(t, "init")
	assert.Contains(t, r.stdout, "Todo initialized successfully")

	cfgData, err := os.ReadFile(filepath.Join(e.configDir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(cfgData), "sync: immediate")

	data, err := os.ReadFile(filepath.Join(e.dataDir, persist.PrimaryFileName))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))

	e.mustRun(t, "add", "keep", "me")
	e.mustRun(t, "init")
	assert.Len(t, e.savedTasks(t), 1, "init leaves an existing task file alone")
}

func TestAddListDone(t *testing.T) {
	e := newEnv(t)

	r := e.mustRun(t, "add", "Buy", "milk", "--tags", "Errands, home", "--due", "2026-05-01")
	assert.Contains(t, r.stdout, "Added")
	assert.Contains(t, r.stdout, "Buy milk")
	e.mustRun(t, "add", "Call mum")

	tasks := e.savedTasks(t)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Buy milk", tasks[0].Title)
	assert.Equal(t, "Errands, home", tasks[0].Tags)
	require.NotNil(t, tasks[0].DueDate)

	r = e.mustRun(t, "list")
	assert.Contains(t, r.stdout, "Buy milk")
	assert.Contains(t, r.stdout, "2026-05-01")
	assert.Contains(t, r.stdout, "[ ]")

	e.mustRun(t, "done", tasks[0].ID)
	assert.True(t, e.savedTasks(t)[0].IsCompleted)

	e.mustRun(t, "undo", tasks[0].ID[:len(tasks[0].ID)-4])
	assert.False(t, e.savedTasks(t)[0].IsCompleted, "unique prefix resolves")
}

func TestDisplayedIDsResolve(t *testing.T) {
	e := newEnv(t)

	first := e.mustRun(t, "add", "first")
	second := e.mustRun(t, "add", "second")
	third := e.mustRun(t, "add", "third")

	// "Added <id> <title>"
	addedID := func(out string) string {
		fields := strings.Fields(out)
		require.GreaterOrEqual(t, len(fields), 2, out)
		return fields[1]
	}
	ids := []string{addedID(first.stdout), addedID(second.stdout), addedID(third.stdout)}
	assert.NotEqual(t, ids[0], ids[1], "tasks added together get distinct short IDs")
	assert.NotEqual(t, ids[1], ids[2])

	listed := map[string]string{}
	for _, line := range strings.Split(e.mustRun(t, "list").stdout, "\n")[2:] {
		fields := strings.Fields(line)
		if len(fields) >= 4 {
			listed[fields[3]] = fields[0]
		}
	}
	assert.Equal(t, ids[1], listed["second"], "list shows the same short ID as add")

	e.mustRun(t, "done", listed["second"])
	e.mustRun(t, "edit", ids[0], "first", "renamed")
	e.mustRun(t, "rm", ids[2])

	tasks := e.savedTasks(t)
	require.Len(t, tasks, 2)
	assert.Equal(t, "first renamed", tasks[0].Title)
	assert.False(t, tasks[0].IsCompleted)
	assert.Equal(t, "second", tasks[1].Title)
	assert.True(t, tasks[1].IsCompleted)

	e.mustRun(t, "undo", listed["second"])
	assert.False(t, e.savedTasks(t)[1].IsCompleted)
}

func TestListJSON(t *testing.T) {
	e := newEnv(t)
	e.mustRun(t, "add", "one")
	e.mustRun(t, "add", "two")

	r := e.mustRun(t, "--json", "list")
	var recs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &recs))
	require.Len(t, recs, 2)
	assert.Equal(t, "one", recs[0]["title"])
	assert.Contains(t, recs[0], "isCompleted")
}

func TestListTagFilter(t *testing.T) {
	e := newEnv(t)
	e.mustRun(t, "add", "report", "--tags", "work")
	e.mustRun(t, "add", "laundry", "--tags", "home")

	r := e.mustRun(t, "list", "--tag", "WORK")
	assert.Contains(t, r.stdout, "report")
	assert.NotContains(t, r.stdout, "laundry")
	assert.Contains(t, r.stdout, "Filtered by 'WORK' - 1 task(s) found")

	r = e.run(t, "", "list", "--tag", "  ")
	assert.Equal(t, exitUserError, r.code)
	assert.Contains(t, r.stderr, "Please enter a tag to filter")

	assert.Len(t, e.savedTasks(t), 2, "filtering never changes the stored list")
}

func TestListOverdueFollowsConfig(t *testing.T) {
	e := newEnv(t)
	e.writeTasks(t, `[
  {"id": "a", "title": "late", "dueDate": "2000-01-01", "isCompleted": false},
  {"id": "b", "title": "finished", "dueDate": "2000-01-01", "isCompleted": true}
]`)

	help := e.mustRun(t, "list", "--help")
	assert.Contains(t, help.stdout, "overdue_includes_completed")
	assert.NotContains(t, help.stdout, "incomplete tasks due before today")

	t.Setenv("TODO_OVERDUE_INCLUDES_COMPLETED", "true")
	r := e.mustRun(t, "list", "--overdue")
	assert.Contains(t, r.stdout, "late")
	assert.Contains(t, r.stdout, "finished")
	assert.Contains(t, r.stdout, "2 overdue task(s)")
}

func TestListDateFilters(t *testing.T) {
	e := newEnv(t)
	e.writeTasks(t, `[
  {"id": "a", "title": "past", "dueDate": "2000-01-01", "isCompleted": false},
  {"id": "b", "title": "past done", "dueDate": "2000-01-01", "isCompleted": true},
  {"id": "c", "title": "future", "dueDate": "2999-06-15", "isCompleted": false},
  {"id": "d", "title": "undated"}
]`)

	r := e.mustRun(t, "list", "--overdue")
	assert.Contains(t, r.stdout, "past")
	assert.NotContains(t, r.stdout, "past done")
	assert.NotContains(t, r.stdout, "future")
	assert.Contains(t, r.stdout, "1 overdue task(s)")

	r = e.mustRun(t, "list", "--due-on", "2999-06-15")
	assert.Contains(t, r.stdout, "future")
	assert.Contains(t, r.stdout, "1 task(s) due on 2999-06-15")

	r = e.mustRun(t, "list", "--from", "1999-12-31", "--to", "2000-01-01")
	assert.Contains(t, r.stdout, "2 task(s) due from")

	r = e.mustRun(t, "list", "--from", "2000-01-02", "--to", "1999-01-01")
	assert.Contains(t, r.stdout, "No tasks.")

	r = e.run(t, "", "list", "--from", "2000-01-01")
	assert.Equal(t, exitUserError, r.code, "--from requires --to")

	r = e.run(t, "", "list", "--today", "--week")
	assert.Equal(t, exitUserError, r.code, "filters are exclusive")

	r = e.run(t, "", "list", "--due-on", "tomorrow")
	assert.Equal(t, exitUserError, r.code)
}

func TestUserErrors(t *testing.T) {
	e := newEnv(t)
	e.writeTasks(t, `[{"id": "abc1", "title": "x"}, {"id": "abc2", "title": "y"}]`)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"blank title", []string{"add", "   "}, "title must not be blank"},
		{"bad due date", []string{"add", "x", "--due", "31/12/2026"}, "YYYY-MM-DD"},
		{"unknown id", []string{"done", "zzz"}, "task not found"},
		{"ambiguous prefix", []string{"rm", "abc"}, "matches more than one task"},
		{"blank new title", []string{"edit", "abc1", " "}, "title must not be blank"},
		{"unknown export format", []string{"export", "--format", "csv"}, "unsupported export format"},
		{"unknown command", []string{"frobnicate"}, "unknown command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := e.run(t, "", tt.args...)
			assert.Equal(t, exitUserError, r.code)
			assert.Contains(t, r.stderr, tt.wantErr)
		})
	}

	assert.Len(t, e.savedTasks(t), 2)
}

func TestEditRmDoneAll(t *testing.T) {
	e := newEnv(t)
	e.writeTasks(t, `[{"id": "abc1", "title": "x"}, {"id": "def2", "title": "y"}]`)

	e.mustRun(t, "edit", "abc", "renamed", "task")
	assert.Equal(t, "renamed task", e.savedTasks(t)[0].Title)

	r := e.mustRun(t, "done-all")
	assert.Contains(t, r.stdout, "Marked 2 task(s) complete")

	e.mustRun(t, "rm", "def2")
	tasks := e.savedTasks(t)
	require.Len(t, tasks, 1)
	assert.Equal(t, "abc1", tasks[0].ID)
}

func TestSave(t *testing.T) {
	e := newEnv(t)
	e.mustRun(t, "add", "a")
	e.mustRun(t, "add", "b")

	r := e.mustRun(t, "save")
	assert.Contains(t, r.stdout, "Tasks saved successfully! (2 tasks)")

	_, err := os.Stat(filepath.Join(e.dataDir, persist.BackupFileName))
	assert.NoError(t, err, "save keeps a backup of the previous file")
}

func TestClearAndArchive(t *testing.T) {
	e := newEnv(t)
	e.writeTasks(t, `[
  {"id": "a1", "title": "finished", "isCompleted": true},
  {"id": "b1", "title": "open"}
]`)

	r := e.mustRun(t, "clear")
	assert.Contains(t, r.stdout, "Cleared 1 completed task(s)")
	tasks := e.savedTasks(t)
	require.Len(t, tasks, 1)
	assert.Equal(t, "open", tasks[0].Title)

	r = e.mustRun(t, "archive")
	assert.Contains(t, r.stdout, "finished")

	r = e.mustRun(t, "--json", "archive", "--limit", "1")
	var recs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "a1", recs[0]["id"])
}

func TestArchiveDisabledByEnv(t *testing.T) {
	e := newEnv(t)
	t.Setenv("TODO_ARCHIVE", "false")

	r := e.run(t, "", "archive")
	assert.Equal(t, exitUserError, r.code)
	assert.Contains(t, r.stderr, "archive is disabled")
}

func TestExport(t *testing.T) {
	e := newEnv(t)
	e.mustRun(t, "add", "one", "--tags", "x")

	before, err := os.ReadFile(filepath.Join(e.dataDir, persist.PrimaryFileName))
	require.NoError(t, err)

	r := e.mustRun(t, "export", "--format", "yaml")
	var recs []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(r.stdout), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "one", recs[0]["title"])

	out := filepath.Join(t.TempDir(), "tasks.toml")
	r = e.mustRun(t, "export", "-f", "toml", "-o", out)
	assert.Contains(t, r.stdout, "Exported 1 task(s)")
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[[tasks]]")

	after, err := os.ReadFile(filepath.Join(e.dataDir, persist.PrimaryFileName))
	require.NoError(t, err)
	assert.Equal(t, before, after, "export never writes the task file")
}

func TestStatus(t *testing.T) {
	e := newEnv(t)
	t.Setenv("TODO_SYNC", "on_close")
	e.mustRun(t, "add", "one")

	r := e.mustRun(t, "status")
	assert.Contains(t, r.stdout, "on_close")
	assert.Contains(t, r.stdout, "Loaded 1 tasks from file")
	assert.NotContains(t, r.stdout, "Archived")

	r = e.mustRun(t, "--json", "status")
	var rep map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &rep))
	assert.Equal(t, "primary", rep["source"])
	assert.EqualValues(t, 1, rep["total"])
	assert.Equal(t, false, rep["dirty"])
}

func TestRecoveryReported(t *testing.T) {
	e := newEnv(t)
	e.writeTasks(t, "{truncated")
	require.NoError(t, os.WriteFile(filepath.Join(e.dataDir, persist.BackupFileName),
		[]byte(`[{"id": "r1", "title": "rescued"}]`), 0o644))

	r := e.mustRun(t, "list")
	assert.Contains(t, r.stderr, "Restored 1 tasks from backup")
	assert.Contains(t, r.stdout, "rescued")
}

func TestInvalidConfig(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.MkdirAll(e.configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, "config.yaml"), []byte("sync: sometimes\n"), 0o644))

	r := e.run(t, "", "list")
	assert.Equal(t, exitUserError, r.code)
	assert.Contains(t, r.stderr, "unknown sync strategy")
}

func TestConfigDataDirPrecedence(t *testing.T) {
	e := newEnv(t)
	fromConfig := filepath.Join(t.TempDir(), "from-config")
	require.NoError(t, os.MkdirAll(e.configDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, "config.yaml"),
		[]byte("data_dir: "+fromConfig+"\n"), 0o644))
	t.Setenv(paths.EnvDataDir, filepath.Join(t.TempDir(), "from-env"))

	var stdout, stderr bytes.Buffer
	code := Run([]string{"--config-dir", e.configDir, "add", "where"}, strings.NewReader(""), &stdout, &stderr)
	require.Equal(t, exitSuccess, code, stderr.String())

	_, err := os.Stat(filepath.Join(fromConfig, persist.PrimaryFileName))
	assert.NoError(t, err, "config.yaml data_dir wins over TODO_DATA_DIR")
}

func TestSaveFailureIsSystemError(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}
	e := newEnv(t)
	e.mustRun(t, "init")
	require.NoError(t, os.Chmod(e.dataDir, 0o555))
	require.NoError(t, os.Chmod(filepath.Join(e.dataDir, persist.PrimaryFileName), 0o444))
	t.Cleanup(func() { os.Chmod(e.dataDir, 0o755) })

	r := e.run(t, "", "add", "blocked")
	assert.Equal(t, exitSysError, r.code)
	assert.Contains(t, r.stderr, "permission denied")

	data, err := os.ReadFile(filepath.Join(e.dataDir, persist.PrimaryFileName))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestShell(t *testing.T) {
	e := newEnv(t)
	input := strings.Join([]string{
		`add "water the plants" --tags garden`,
		`list --tag garden`,
		`help`,
		`bogus`,
		`quit`,
	}, "\n")

	r := e.run(t, input, "shell")
	require.Equal(t, exitSuccess, r.code, r.stderr)
	assert.Contains(t, r.stdout, "No saved tasks found. Starting fresh!")
	assert.Contains(t, r.stdout, "Added")
	assert.Contains(t, r.stdout, "Filtered by 'garden' - 1 task(s) found")
	assert.Contains(t, r.stdout, "Commands:")
	assert.Contains(t, r.stderr, "unknown command")
	assert.Contains(t, r.stdout, "Saved 1 task(s)")

	tasks := e.savedTasks(t)
	require.Len(t, tasks, 1)
	assert.Equal(t, "water the plants", tasks[0].Title)
}

func TestShellEndOfInputSaves(t *testing.T) {
	e := newEnv(t)
	t.Setenv("TODO_SYNC", "on_close")

	r := e.run(t, "add pending\n", "shell")
	require.Equal(t, exitSuccess, r.code, r.stderr)
	assert.Len(t, e.savedTasks(t), 1, "leaving the shell flushes pending changes")
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"list", []string{"list"}},
		{"add  buy   milk", []string{"add", "buy", "milk"}},
		{`add "buy milk" --tags 'a, b'`, []string{"add", "buy milk", "--tags", "a, b"}},
		{`add it\'s`, []string{"add", "it's"}},
		{`add ""`, []string{"add", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := splitArgs(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := splitArgs(`add "open`)
	assert.ErrorIs(t, err, errUnterminatedQuote)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitSuccess, exitCode(nil))
	assert.Equal(t, exitUserError, exitCode(types.ErrBlankTitle))
	assert.Equal(t, exitSysError, exitCode(sysErrorf("disk: %w", types.ErrIO)))
}
