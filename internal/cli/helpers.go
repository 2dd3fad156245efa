package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/todo/internal/app"
	"github.com/mesh-intelligence/todo/internal/logging"
	"github.com/mesh-intelligence/todo/internal/paths"
	"github.com/mesh-intelligence/todo/internal/persist"
	"github.com/mesh-intelligence/todo/internal/store"
	"github.com/mesh-intelligence/todo/pkg/types"
)

// shared is the session kept open by the shell; nil otherwise.
var shared *app.Session

// shortIDLen is how many ID characters the text output shows. The short
// form is the ID's tail: the leading digits of a UUID v7 are a timestamp
// and repeat for tasks created close together.
const shortIDLen = 8

// attachSession resolves the data directory and attaches a session to it.
// The caller must Detach. A degraded recovery is reported on stderr.
func attachSession(cmd *cobra.Command, opts ...app.Option) (*app.Session, error) {
	if loaded == nil {
		return nil, sysErrorf("configuration not loaded")
	}

	dataDir, err := paths.ResolveDataDir(flags.dataDir, loaded.GetString(cfgKeyDataDir))
	if err != nil {
		return nil, sysErrorf("resolve data dir: %w", err)
	}
	cfg, err := buildConfig(loaded, dataDir)
	if err != nil {
		return nil, sysErrorf("%w", err)
	}
	logger, err := logging.FromConfig(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	s, err := app.Attach(cfg, append([]app.Option{app.WithLogger(logger)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if rec := s.Recovery(); rec.Degraded() {
		fmt.Fprintln(cmd.ErrOrStderr(), rec.Message())
	}
	return s, nil
}

// withSession runs fn against the shell's session, or against a session
// attached for this command alone and detached afterwards.
func withSession(cmd *cobra.Command, fn func(*app.Session) error) error {
	if shared != nil {
		return fn(shared)
	}

	s, err := attachSession(cmd)
	if err != nil {
		return err
	}
	runErr := fn(s)
	if err := s.Detach(); err != nil {
		return errors.Join(runErr, sysErrorf("save tasks: %w", err))
	}
	return runErr
}

// resolveTask finds the task whose ID equals ref or, failing that, is the
// only one starting or ending with ref. The short IDs in the text output
// are suffixes.
func resolveTask(st *store.TaskStore, ref string) (types.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return types.Task{}, fmt.Errorf("%w: empty id", types.ErrNotFound)
	}
	if t, ok := st.Get(ref); ok {
		return t, nil
	}

	var matches []types.Task
	for _, t := range st.Tasks() {
		if strings.HasPrefix(t.ID, ref) || strings.HasSuffix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return types.Task{}, fmt.Errorf("%w: %s", types.ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return types.Task{}, fmt.Errorf("%w: %s (%d matches)", types.ErrAmbiguousID, ref, len(matches))
	}
}

// parseDate parses a YYYY-MM-DD flag value as local midnight.
func parseDate(flag, value string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(value), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: --%s must be YYYY-MM-DD, got %q", types.ErrValidation, flag, value)
	}
	return t, nil
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[len(id)-shortIDLen:]
	}
	return id
}

// printJSON writes tasks the way they appear in tasks.json.
func printJSON(cmd *cobra.Command, tasks []types.Task) error {
	data, err := persist.Encode(tasks, persist.FormatJSON)
	if err != nil {
		return sysErrorf("encode tasks: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
