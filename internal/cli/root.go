// Package cli implements the todo command-line interface: one cobra
// command per task operation, plus an interactive shell in which the
// auto-save timer stays live between commands.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/todo/internal/paths"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

var flags rootFlags

// loaded is the configuration read by the root command's pre-run hook.
var loaded *viper.Viper

// NewRootCmd creates the top-level "todo" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "todo",
		Short: "A local task list with tags and due dates",
		Long: `todo keeps a list of tasks in a JSON file under the data directory.
Every change is saved with a backup copy of the previous file, and a
corrupted task file is recovered from that backup on the next start.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: preRun,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir + /todo)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/data)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output as JSON")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newArchiveCmd())
	root.AddCommand(newShellCmd())
	root.AddCommand(taskCommands()...)

	return root
}

// taskCommands returns the commands that operate on the task list. The
// shell reuses them.
func taskCommands() []*cobra.Command {
	return []*cobra.Command{
		newAddCmd(),
		newListCmd(),
		newDoneCmd(),
		newUndoCmd(),
		newDoneAllCmd(),
		newClearCmd(),
		newEditCmd(),
		newRmCmd(),
		newSaveCmd(),
	}
}

// preRun loads config.yaml before any command that needs it.
func preRun(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" || cmd.Name() == "help" {
		return nil
	}
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return sysErrorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return sysErrorf("load config: %w", err)
	}
	loaded = v
	return nil
}

// Run executes the CLI with args and returns the process exit code.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	loaded = nil
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// Execute runs the CLI against the process's arguments and exits.
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// sysError marks a failure of the environment (disk, permissions, config)
// rather than of the user's input.
type sysError struct{ err error }

func (e *sysError) Error() string { return e.err.Error() }
func (e *sysError) Unwrap() error { return e.err }

func sysErrorf(format string, a ...any) error {
	return &sysError{err: fmt.Errorf(format, a...)}
}

// exitCode maps an error to an exit code. Anything not marked as a system
// failure is the user's to fix.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var se *sysError
	if errors.As(err, &se) {
		return exitSysError
	}
	return exitUserError
}
