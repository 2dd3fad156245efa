package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/todo/internal/app"
	"github.com/mesh-intelligence/todo/pkg/types"
)

func newAddCmd() *cobra.Command {
	var (
		tags string
		due  string
	)
	cmd := &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a task",
		Example: `  todo add Buy milk --tags errands,home
  todo add "File taxes" --due 2026-04-30`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			if strings.TrimSpace(title) == "" {
				return types.ErrBlankTitle
			}

			var duePtr *time.Time
			if cmd.Flags().Changed("due") {
				d, err := parseDate("due", due)
				if err != nil {
					return err
				}
				duePtr = &d
			}

			return withSession(cmd, func(s *app.Session) error {
				task := s.Store().Add(title, tags, duePtr)
				return printTask(cmd, "Added", task)
			})
		},
	}
	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tags")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	return cmd
}

// newCompletionCmd builds done and undo, which differ only in the value
// they set.
func newCompletionCmd(use, short, verb string, value bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *app.Session) error {
				task, err := resolveTask(s.Store(), args[0])
				if err != nil {
					return err
				}
				s.Store().SetCompleted(task.ID, value)
				task.IsCompleted = value
				return printTask(cmd, verb, task)
			})
		},
	}
}

func newDoneCmd() *cobra.Command {
	return newCompletionCmd("done", "Mark a task complete", "Completed", true)
}

func newUndoCmd() *cobra.Command {
	return newCompletionCmd("undo", "Mark a task not complete", "Reopened", false)
}

func newDoneAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done-all",
		Short: "Mark every task complete",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *app.Session) error {
				n := s.Store().CompleteAll()
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %d task(s) complete\n", n)
				return nil
			})
		},
	}
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove completed tasks",
		Long:  "Remove every completed task. Removed tasks are kept in the archive unless archiving is disabled.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *app.Session) error {
				n, err := s.ClearCompleted()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d completed task(s)\n", n)
				return nil
			})
		},
	}
}

func newEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <title...>",
		Short: "Change a task's title",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args[1:], " ")
			return withSession(cmd, func(s *app.Session) error {
				task, err := resolveTask(s.Store(), args[0])
				if err != nil {
					return err
				}
				if _, err := s.Store().UpdateTitle(task.ID, title); err != nil {
					return err
				}
				task.Title = title
				return printTask(cmd, "Renamed", task)
			})
		},
	}
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *app.Session) error {
				task, err := resolveTask(s.Store(), args[0])
				if err != nil {
					return err
				}
				s.Store().Remove(task.ID)
				return printTask(cmd, "Deleted", task)
			})
		},
	}
}

func newSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Write the task list to disk now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *app.Session) error {
				if err := s.Save(); err != nil {
					return sysErrorf("save tasks: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Tasks saved successfully! (%d tasks)\n", s.Store().Len())
				return nil
			})
		},
	}
}
