package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/todo/internal/app"
)

const shellPrompt = "todo> "

const shellHelp = `Commands:
  add <title...> [--tags t] [--due YYYY-MM-DD]
  list [--tag t | --due-on d | --today | --from d --to d | --week | --overdue]
  done <id>    undo <id>    done-all    clear
  edit <id> <title...>    rm <id>
  save    status    export [--format f]    archive [--limit n]
  help    quit`

var errUnterminatedQuote = errors.New("unterminated quote")

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Work with tasks interactively",
		Long: `Start an interactive session. The task list stays loaded between commands
and the auto-save timer runs in the background; pending changes are saved
on quit.`,
		Args: cobra.NoArgs,
		RunE: runShell,
	}
}

func runShell(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	var errMu sync.Mutex
	errOut := cmd.ErrOrStderr()
	report := func(format string, a ...any) {
		errMu.Lock()
		defer errMu.Unlock()
		fmt.Fprintf(errOut, format, a...)
	}

	s, err := attachSession(cmd, app.WithOnSave(func(_ int, err error) {
		if err != nil {
			report("Auto-save failed: %v\n", err)
		}
	}))
	if err != nil {
		return err
	}
	shared = s
	defer func() { shared = nil }()

	fmt.Fprintln(out, s.Recovery().Message())
	runShellLoop(cmd, cmd.InOrStdin(), out, report)

	if err := s.Detach(); err != nil {
		return sysErrorf("save tasks: %w", err)
	}
	fmt.Fprintf(out, "Saved %d task(s). Bye.\n", s.Store().Len())
	return nil
}

func runShellLoop(cmd *cobra.Command, in io.Reader, out io.Writer, report func(string, ...any)) {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, shellPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return
		}

		words, err := splitArgs(scanner.Text())
		if err != nil {
			report("Error: %v\n", err)
			continue
		}
		if len(words) == 0 {
			continue
		}

		switch words[0] {
		case "quit", "exit":
			return
		case "help", "?":
			fmt.Fprintln(out, shellHelp)
			continue
		}

		if err := runShellCommand(cmd, words); err != nil {
			report("Error: %v\n", err)
		}
	}
}

// runShellCommand runs one line against a fresh command tree so that flag
// values never leak from one line into the next.
func runShellCommand(parent *cobra.Command, words []string) error {
	root := &cobra.Command{
		Use:           "todo",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(taskCommands()...)
	root.AddCommand(newStatusCmd(), newExportCmd(), newArchiveCmd())

	root.SetArgs(words)
	root.SetIn(parent.InOrStdin())
	root.SetOut(parent.OutOrStdout())
	root.SetErr(parent.ErrOrStderr())
	return root.Execute()
}

// splitArgs splits a shell line into words. Single or double quotes group
// words; a backslash escapes the next character outside single quotes.
func splitArgs(line string) ([]string, error) {
	var (
		words   []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inWord = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inWord = true
		case r == ' ' || r == '\t':
			if inWord {
				words = append(words, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 || escaped {
		return nil, errUnterminatedQuote
	}
	if inWord {
		words = append(words, cur.String())
	}
	return words, nil
}
