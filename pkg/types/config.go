package types

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Sync strategies. A strategy decides when in-memory changes reach disk.
const (
	// SyncImmediate saves after every mutation (write-through) and keeps
	// the interval timer running as a safety net.
	SyncImmediate = "immediate"
	// SyncInterval saves on the interval timer only.
	SyncInterval = "interval"
	// SyncOnClose saves only on explicit save or when the session detaches.
	SyncOnClose = "on_close"
)

// Defaults applied by DefaultConfig and by front ends.
const (
	DefaultAutoSaveInterval = 30 * time.Second
	DefaultLogLevel         = "warn"
	DefaultLogFormat        = "text"
)

// Config holds everything a session needs to attach to a data directory.
type Config struct {
	DataDir                  string        `mapstructure:"data_dir" yaml:"data_dir"`
	Sync                     string        `mapstructure:"sync" yaml:"sync" validate:"omitempty,oneof=immediate interval on_close"`
	AutoSaveInterval         time.Duration `mapstructure:"autosave_interval" yaml:"autosave_interval" validate:"gte=0"`
	OverdueIncludesCompleted bool          `mapstructure:"overdue_includes_completed" yaml:"overdue_includes_completed"`
	Archive                  bool          `mapstructure:"archive" yaml:"archive"`
	LogLevel                 string        `mapstructure:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFormat                string        `mapstructure:"log_format" yaml:"log_format" validate:"omitempty,oneof=text logfmt json"`
}

// Config validation errors.
var (
	ErrSyncStrategyUnknown     = errors.New("unknown sync strategy")
	ErrAutoSaveIntervalInvalid = errors.New("autosave interval must not be negative")
	ErrLogLevelUnknown         = errors.New("unknown log level")
	ErrLogFormatUnknown        = errors.New("unknown log format")
)

// fieldErrors maps struct field names to the sentinel returned when that
// field fails validation.
var fieldErrors = map[string]error{
	"Sync":             ErrSyncStrategyUnknown,
	"AutoSaveInterval": ErrAutoSaveIntervalInvalid,
	"LogLevel":         ErrLogLevelUnknown,
	"LogFormat":        ErrLogFormatUnknown,
}

var validate = validator.New()

// DefaultConfig returns a Config with the standard defaults and DataDir
// set to dataDir.
func DefaultConfig(dataDir string) Config {
	return Config{
		DataDir:          dataDir,
		Sync:             SyncImmediate,
		AutoSaveInterval: DefaultAutoSaveInterval,
		Archive:          true,
		LogLevel:         DefaultLogLevel,
		LogFormat:        DefaultLogFormat,
	}
}

// Validate checks that the Config is well-formed. It returns an error
// wrapping one of the sentinels above on failure.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	if sentinel, ok := fieldErrors[fe.StructField()]; ok {
		return fmt.Errorf("%w: %v", sentinel, fe.Value())
	}
	return err
}

// SyncStrategy returns the effective sync strategy, defaulting to
// SyncImmediate.
func (c Config) SyncStrategy() string {
	if c.Sync == "" {
		return SyncImmediate
	}
	return c.Sync
}

// Interval returns the effective auto-save interval. Zero means the
// default; there is no way to disable the timer for strategies that use it.
func (c Config) Interval() time.Duration {
	if c.AutoSaveInterval <= 0 {
		return DefaultAutoSaveInterval
	}
	return c.AutoSaveInterval
}
