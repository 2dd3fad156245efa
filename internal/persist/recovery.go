package persist

import "fmt"

// LoadSource names where LoadWithRecovery found its tasks.
type LoadSource string

// Load sources.
const (
	SourcePrimary          LoadSource = "primary"
	SourceBackup           LoadSource = "restored from backup"
	SourceFresh            LoadSource = "fresh start"
	SourceBothCorrupted    LoadSource = "both corrupted"
	SourcePrimaryCorrupted LoadSource = "primary corrupted, no backup"
	SourceBackupCorrupted  LoadSource = "backup corrupted, no primary"
)

// Recovery reports the outcome of LoadWithRecovery.
type Recovery struct {
	Source LoadSource
	Path   string // file the tasks came from; empty when starting empty
	Count  int
	Err    error // why the primary (or both files) could not be used
}

// Degraded reports whether the load did not come cleanly from the primary
// file or a fresh start.
func (r Recovery) Degraded() bool {
	return r.Source != SourcePrimary && r.Source != SourceFresh
}

// Message returns a one-line status suitable for showing to the user.
func (r Recovery) Message() string {
	switch r.Source {
	case SourcePrimary:
		return fmt.Sprintf("Loaded %d tasks from file", r.Count)
	case SourceBackup:
		return fmt.Sprintf("Restored %d tasks from backup", r.Count)
	case SourceFresh:
		return "No saved tasks found. Starting fresh!"
	case SourceBothCorrupted:
		return "Task file and backup are both corrupted. Starting with an empty list."
	case SourcePrimaryCorrupted:
		return "Task file is corrupted and no backup exists. Starting with an empty list."
	case SourceBackupCorrupted:
		return "No task file found and the backup is corrupted. Starting with an empty list."
	default:
		return string(r.Source)
	}
}
