package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/todo/internal/app"
	"github.com/mesh-intelligence/todo/internal/persist"
)

func newExportCmd() *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the task list as JSON, YAML, or TOML",
		Long: `Write the task list to stdout or to --output. Export only reads; the task
file and its backup are not touched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *app.Session) error {
				data, err := persist.Encode(s.Store().Tasks(), format)
				if err != nil {
					if errors.Is(err, persist.ErrUnknownFormat) {
						return err
					}
					return sysErrorf("export: %w", err)
				}

				if output == "" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				if err := afero.WriteFile(s.Engine().Fs(), output, data, 0o644); err != nil {
					return sysErrorf("write %s: %w", output, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d task(s) to %s\n", s.Store().Len(), output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", persist.FormatJSON, "output format: "+strings.Join(persist.Formats, ", "))
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}
