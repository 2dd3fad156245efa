// Package logging builds the charmbracelet/log logger shared by the
// persistence engine, the auto-saver, and the CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/mesh-intelligence/todo/pkg/types"
)

// Prefix is printed before every log line in text format.
const Prefix = "todo"

// Options holds logger configuration.
type Options struct {
	Level           log.Level
	Formatter       log.Formatter
	ReportTimestamp bool
	Prefix          string
}

// DefaultOptions returns warn-level text logging without timestamps.
func DefaultOptions() Options {
	return Options{
		Level:     log.WarnLevel,
		Formatter: log.TextFormatter,
		Prefix:    Prefix,
	}
}

// New returns a logger writing to w with the named level and format.
// Empty names select the defaults; unknown names are errors.
func New(w io.Writer, level, format string) (*log.Logger, error) {
	opts := DefaultOptions()

	if level != "" {
		l, err := ParseLevel(level)
		if err != nil {
			return nil, err
		}
		opts.Level = l
	}
	if format != "" {
		f, err := ParseFormatter(format)
		if err != nil {
			return nil, err
		}
		opts.Formatter = f
	}
	// Timestamps help when logs go somewhere other than a terminal.
	opts.ReportTimestamp = opts.Formatter != log.TextFormatter

	return NewWithOptions(w, opts), nil
}

// NewWithOptions returns a logger writing to w. A nil writer means stderr.
func NewWithOptions(w io.Writer, opts Options) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	return log.NewWithOptions(w, log.Options{
		Level:           opts.Level,
		Formatter:       opts.Formatter,
		ReportTimestamp: opts.ReportTimestamp,
		Prefix:          opts.Prefix,
	})
}

// FromConfig builds a logger from the log settings in cfg.
func FromConfig(w io.Writer, cfg types.Config) (*log.Logger, error) {
	return New(w, cfg.LogLevel, cfg.LogFormat)
}

// ParseLevel maps debug, info, warn, or error to a log level.
func ParseLevel(s string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel, nil
	case "info":
		return log.InfoLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("%w: %q", types.ErrLogLevelUnknown, s)
	}
}

// ParseFormatter maps text, logfmt, or json to a formatter.
func ParseFormatter(s string) (log.Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text":
		return log.TextFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	default:
		return 0, fmt.Errorf("%w: %q", types.ErrLogFormatUnknown, s)
	}
}
