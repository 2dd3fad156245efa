package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/todo/pkg/types"
)

// printTasks writes tasks as JSON under --json, otherwise as a table.
func printTasks(cmd *cobra.Command, tasks []types.Task) error {
	if flags.jsonMode {
		return printJSON(cmd, tasks)
	}

	out := cmd.OutOrStdout()
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDONE\tTITLE\tTAGS\tDUE")
	fmt.Fprintln(w, "--\t----\t-----\t----\t---")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", shortID(t.ID), checkbox(t.IsCompleted), t.Title, t.Tags, formatDue(t))
	}
	return w.Flush()
}

// printTask writes a single task after a change.
func printTask(cmd *cobra.Command, verb string, t types.Task) error {
	if flags.jsonMode {
		return printJSON(cmd, []types.Task{t})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", verb, shortID(t.ID), t.Title)
	return nil
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func formatDue(t types.Task) string {
	if t.DueDate == nil {
		return ""
	}
	return t.DueDate.Format(time.DateOnly)
}
