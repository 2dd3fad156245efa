package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/todo/internal/app"
)

// archivedJSON is the --json form of one archive entry.
type archivedJSON struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Tags      string `json:"tags"`
	ClearedAt string `json:"clearedAt"`
}

func newArchiveCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Show tasks removed by clear",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *app.Session) error {
				a, err := s.Archive()
				if err != nil {
					return err
				}
				entries, err := a.List(limit)
				if err != nil {
					return sysErrorf("read archive: %w", err)
				}

				out := cmd.OutOrStdout()
				if flags.jsonMode {
					recs := make([]archivedJSON, 0, len(entries))
					for _, e := range entries {
						recs = append(recs, archivedJSON{
							ID:        e.Task.ID,
							Title:     e.Task.Title,
							Tags:      e.Task.Tags,
							ClearedAt: e.ClearedAt.Format(time.RFC3339),
						})
					}
					data, err := json.MarshalIndent(recs, "", "  ")
					if err != nil {
						return sysErrorf("marshal archive: %w", err)
					}
					fmt.Fprintln(out, string(data))
					return nil
				}

				if len(entries) == 0 {
					fmt.Fprintln(out, "Archive is empty.")
					return nil
				}
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "CLEARED\tID\tTITLE\tTAGS")
				for _, e := range entries {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
						e.ClearedAt.Local().Format(time.DateTime), shortID(e.Task.ID), e.Task.Title, e.Task.Tags)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of entries (0 = all)")
	return cmd
}
