package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/todo/internal/app"
	"github.com/mesh-intelligence/todo/pkg/types"
)

func newListCmd() *cobra.Command {
	var (
		tag     string
		dueOn   string
		from    string
		to      string
		today   bool
		week    bool
		overdue bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks, optionally filtered",
		Long: `List tasks in their saved order. At most one filter applies:

  --tag        tasks whose tags contain the text (case-insensitive)
  --due-on     tasks due on a date
  --today      tasks due today
  --from/--to  tasks due in a date range, inclusive
  --week       tasks due from today through seven days from now
  --overdue    tasks due before today; completed tasks only with
               overdue_includes_completed: true

Filters never change the stored list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				start, end time.Time
				err        error
			)
			switch {
			case cmd.Flags().Changed("due-on"):
				if start, err = parseDate("due-on", dueOn); err != nil {
					return err
				}
			case cmd.Flags().Changed("from"):
				if start, err = parseDate("from", from); err != nil {
					return err
				}
				if end, err = parseDate("to", to); err != nil {
					return err
				}
			}

			return withSession(cmd, func(s *app.Session) error {
				st := s.Store()
				var (
					tasks []types.Task
					label string
				)
				switch {
				case cmd.Flags().Changed("tag"):
					tasks, err = st.FilterByTag(tag)
					if errors.Is(err, types.ErrBlankTag) {
						return fmt.Errorf("%w: Please enter a tag to filter", types.ErrValidation)
					}
					label = fmt.Sprintf("Filtered by '%s' - %d task(s) found", tag, len(tasks))
				case cmd.Flags().Changed("due-on"):
					tasks = st.FilterDueOn(start)
					label = fmt.Sprintf("%d task(s) due on %s", len(tasks), start.Format(time.DateOnly))
				case today:
					tasks = st.DueToday()
					label = fmt.Sprintf("%d task(s) due today", len(tasks))
				case cmd.Flags().Changed("from"):
					tasks = st.FilterDueWithin(start, end)
					label = fmt.Sprintf("%d task(s) due from %s to %s", len(tasks), start.Format(time.DateOnly), end.Format(time.DateOnly))
				case week:
					tasks = st.DueThisWeek()
					label = fmt.Sprintf("%d task(s) due this week", len(tasks))
				case overdue:
					tasks = st.Overdue()
					label = fmt.Sprintf("%d overdue task(s)", len(tasks))
				default:
					tasks = st.Tasks()
				}

				if err := printTasks(cmd, tasks); err != nil {
					return err
				}
				if label != "" && !flags.jsonMode {
					fmt.Fprintln(cmd.OutOrStdout(), label)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "filter by tag")
	cmd.Flags().StringVar(&dueOn, "due-on", "", "filter by due date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&today, "today", false, "tasks due today")
	cmd.Flags().StringVar(&from, "from", "", "start of due date range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "end of due date range (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&week, "week", false, "tasks due within the next seven days")
	cmd.Flags().BoolVar(&overdue, "overdue", false, "tasks past their due date (see overdue_includes_completed)")

	cmd.MarkFlagsMutuallyExclusive("tag", "due-on", "today", "from", "week", "overdue")
	cmd.MarkFlagsRequiredTogether("from", "to")
	return cmd
}
