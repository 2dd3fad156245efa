package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/todo/internal/app"
	"github.com/mesh-intelligence/todo/internal/archive"
)

// statusReport is the --json form of the status command.
type statusReport struct {
	DataDir   string `json:"dataDir"`
	Primary   string `json:"primary"`
	Backup    string `json:"backup"`
	Source    string `json:"source"`
	Message   string `json:"message"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Overdue   int    `json:"overdue"`
	Dirty     bool   `json:"dirty"`
	Sync      string `json:"sync"`
	Interval  string `json:"autosaveInterval"`
	Archived  *int   `json:"archived,omitempty"`
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where tasks are stored and how they were loaded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *app.Session) error {
				return printStatus(cmd, buildStatus(s))
			})
		},
	}
}

func buildStatus(s *app.Session) statusReport {
	st := s.Store()
	tasks := st.Tasks()
	completed := 0
	for _, t := range tasks {
		if t.IsCompleted {
			completed++
		}
	}

	rec := s.Recovery()
	cfg := s.Config()
	r := statusReport{
		DataDir:   s.Engine().DataDir(),
		Primary:   s.Engine().PrimaryPath(),
		Backup:    s.Engine().BackupPath(),
		Source:    string(rec.Source),
		Message:   rec.Message(),
		Total:     len(tasks),
		Completed: completed,
		Overdue:   len(st.Overdue()),
		Dirty:     st.IsDirty(),
		Sync:      cfg.SyncStrategy(),
		Interval:  cfg.Interval().String(),
	}
	// Only report an archive that already exists; status must not create one.
	if _, err := os.Stat(filepath.Join(r.DataDir, archive.FileName)); err == nil {
		if a, err := s.Archive(); err == nil {
			if n, err := a.Count(); err == nil {
				r.Archived = &n
			}
		}
	}
	return r
}

func printStatus(cmd *cobra.Command, r statusReport) error {
	out := cmd.OutOrStdout()
	if flags.jsonMode {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return sysErrorf("marshal status: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Data dir:\t%s\n", r.DataDir)
	fmt.Fprintf(w, "Task file:\t%s\n", r.Primary)
	fmt.Fprintf(w, "Backup:\t%s\n", r.Backup)
	fmt.Fprintf(w, "Loaded:\t%s\n", r.Message)
	fmt.Fprintf(w, "Tasks:\t%d (%d completed, %d overdue)\n", r.Total, r.Completed, r.Overdue)
	fmt.Fprintf(w, "Sync:\t%s every %s\n", r.Sync, r.Interval)
	fmt.Fprintf(w, "Unsaved changes:\t%t\n", r.Dirty)
	if r.Archived != nil {
		fmt.Fprintf(w, "Archived:\t%d\n", *r.Archived)
	}
	return w.Flush()
}
