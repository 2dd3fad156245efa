package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/todo/internal/paths"
	"github.com/mesh-intelligence/todo/internal/persist"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration and an empty task file",
		Long: `Create the configuration directory with a default config.yaml and write an
empty tasks.json to the data directory. Existing files are left alone.`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return sysErrorf("resolve config dir: %w", err)
	}

	s, err := attachSession(cmd)
	if err != nil {
		return err
	}
	if s.Recovery().Source == persist.SourceFresh {
		if err := s.Save(); err != nil {
			s.Detach()
			return sysErrorf("initialize storage: %w", err)
		}
	}
	if err := s.Detach(); err != nil {
		return sysErrorf("finalize storage: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Todo initialized successfully")
	fmt.Fprintln(out, "  config:", configDir)
	fmt.Fprintln(out, "  data:  ", s.Engine().DataDir())
	return nil
}
