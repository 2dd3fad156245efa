package archive

// Schema DDL. cleared_at is fixed-width UTC text (see clearedAtLayout) so
// that ordering the text orders the times; due_date is RFC 3339.
const (
	createArchivedTasks = `CREATE TABLE IF NOT EXISTS archived_tasks (
    archive_id INTEGER PRIMARY KEY AUTOINCREMENT,
    task_id TEXT NOT NULL,
    title TEXT NOT NULL,
    tags TEXT NOT NULL,
    due_date TEXT,
    is_completed INTEGER NOT NULL,
    cleared_at TEXT NOT NULL
);`

	idxArchivedTasksClearedAt = `CREATE INDEX IF NOT EXISTS idx_archived_tasks_cleared_at ON archived_tasks(cleared_at);`
	idxArchivedTasksTaskID    = `CREATE INDEX IF NOT EXISTS idx_archived_tasks_task_id ON archived_tasks(task_id);`
)

// schemaDDL lists the statements run on Open, in order.
var schemaDDL = []string{
	createArchivedTasks,
	idxArchivedTasksClearedAt,
	idxArchivedTasksTaskID,
}

const (
	insertArchivedTask = `INSERT INTO archived_tasks
    (task_id, title, tags, due_date, is_completed, cleared_at)
    VALUES (?, ?, ?, ?, ?, ?)`

	selectArchivedTasks = `SELECT archive_id, task_id, title, tags, due_date, is_completed, cleared_at
    FROM archived_tasks
    ORDER BY cleared_at DESC, archive_id DESC`

	countArchivedTasks = `SELECT COUNT(*) FROM archived_tasks`
)
