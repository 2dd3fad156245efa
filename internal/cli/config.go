package cli

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/todo/internal/paths"
	"github.com/mesh-intelligence/todo/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "TODO"
)

// Config keys in config.yaml.
const (
	cfgKeyDataDir                  = "data_dir"
	cfgKeySync                     = "sync"
	cfgKeyAutoSaveInterval         = "autosave_interval"
	cfgKeyOverdueIncludesCompleted = "overdue_includes_completed"
	cfgKeyArchive                  = "archive"
	cfgKeyLogLevel                 = "log_level"
	cfgKeyLogFormat                = "log_format"
)

// envKeys may be overridden by TODO_<KEY> environment variables.
// TODO_DATA_DIR is handled by paths.ResolveDataDir so that config.yaml
// keeps precedence over it.
var envKeys = []string{
	cfgKeySync,
	cfgKeyAutoSaveInterval,
	cfgKeyOverdueIncludesCompleted,
	cfgKeyArchive,
	cfgKeyLogLevel,
	cfgKeyLogFormat,
}

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# todo configuration

# Data directory holding tasks.json, tasks.backup.json and archive.db.
# Overridden by --data-dir; overrides TODO_DATA_DIR.
# data_dir:

# When changes reach disk: immediate (after every change),
# interval (on the auto-save timer), or on_close (explicit save and exit).
sync: immediate

# Auto-save timer period.
autosave_interval: 30s

# Whether completed tasks with a past due date count as overdue.
overdue_includes_completed: false

# Keep a history of tasks removed by "todo clear" in archive.db.
archive: true

# Logging: debug, info, warn, error; text, logfmt, json.
log_level: warn
log_format: text
`

// loadConfig reads config.yaml from configDir, creating the directory and
// a commented default file on first run.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	def := types.DefaultConfig("")
	v.SetDefault(cfgKeySync, def.Sync)
	v.SetDefault(cfgKeyAutoSaveInterval, def.AutoSaveInterval)
	v.SetDefault(cfgKeyOverdueIncludesCompleted, def.OverdueIncludesCompleted)
	v.SetDefault(cfgKeyArchive, def.Archive)
	v.SetDefault(cfgKeyLogLevel, def.LogLevel)
	v.SetDefault(cfgKeyLogFormat, def.LogFormat)

	v.SetEnvPrefix(envPrefix)
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// buildConfig turns the loaded settings into a session Config for dataDir.
func buildConfig(v *viper.Viper, dataDir string) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.DataDir = dataDir
	return cfg, nil
}

func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

func ensureDefaultConfigFile(configDir string) error {
	path := paths.ConfigFile(configDir)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
