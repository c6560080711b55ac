package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/sqlmaster/internal/paths"
	"github.com/mesh-intelligence/sqlmaster/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	envPrefix = "SQLMASTER"

	cfgKeyDataDir      = "data_dir"
	cfgKeyLogLevel     = "log_level"
	cfgKeyLogFile      = "log_file"
	cfgKeyTheme        = "theme"
	cfgKeyAdvanceDelay = "advance_delay"
	cfgKeyDemo         = "demo"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# sqlmaster configuration

# Log level for the log file: debug, info, warn, error.
log_level: info

# Mission panel style: auto, dark, light, notty, ascii, plain.
theme: auto

# How long a passed mission stays on screen before the next one.
advance_delay: 1200ms

# Load the demo tables when a session starts.
demo: false

# Data directory for working datasets (optional; overridable by --data-dir).
# data_dir:

# Log file (optional; defaults to sqlmaster.log in this directory).
# log_file:
`

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file on first run. Settings can be overridden by SQLMASTER_*
// environment variables. A missing config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyLogLevel, types.LogLevelInfo)
	v.SetDefault(cfgKeyTheme, types.ThemeAuto)
	v.SetDefault(cfgKeyAdvanceDelay, types.DefaultDelay)
	v.SetDefault(cfgKeyDemo, false)
	v.SetDefault(cfgKeyLogFile, filepath.Join(configDir, paths.LogFileName))
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, paths.ConfigFileName)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// decodeConfig turns the loaded settings into a validated Config.
func decodeConfig(v *viper.Viper) (types.Config, error) {
	cfg := types.Config{
		DataDir:      v.GetString(cfgKeyDataDir),
		LogLevel:     strings.ToLower(v.GetString(cfgKeyLogLevel)),
		LogFile:      v.GetString(cfgKeyLogFile),
		Theme:        strings.ToLower(v.GetString(cfgKeyTheme)),
		AdvanceDelay: v.GetDuration(cfgKeyAdvanceDelay),
		Demo:         v.GetBool(cfgKeyDemo),
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
