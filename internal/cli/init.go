package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/sqlmaster/internal/paths"
	"github.com/mesh-intelligence/sqlmaster/internal/sqlite"
	"github.com/mesh-intelligence/sqlmaster/pkg/types"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	DataDir      string `yaml:"data_dir,omitempty"`
	LogLevel     string `yaml:"log_level"`
	LogFile      string `yaml:"log_file,omitempty"`
	Theme        string `yaml:"theme"`
	AdvanceDelay string `yaml:"advance_delay"`
	Demo         bool   `yaml:"demo"`
}

func newInitCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration and data directories",
		Long: "Create the configuration directory with a config.yaml holding every setting,\n" +
			"create the data directory, and check that the database engine starts.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, e)
		},
	}
}

func runInit(cmd *cobra.Command, e *env) error {
	configDir, err := paths.ResolveConfigDir(e.flags.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return sysError(fmt.Errorf("create config directory: %w", err))
	}

	configPath := filepath.Join(configDir, paths.ConfigFileName)
	if err := writeConfigIfMissing(configPath, e.flags.dataDir); err != nil {
		return sysError(fmt.Errorf("write config: %w", err))
	}

	v, err := loadConfig(configDir)
	if err != nil {
		return sysError(err)
	}
	cfg, err := decodeConfig(v)
	if err != nil {
		return userError(err)
	}
	dataDir, err := paths.ResolveDataDir(e.flags.dataDir, cfg.DataDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve data dir: %w", err))
	}

	// Start and stop the engine once so that a broken install shows up here.
	ds, err := sqlite.Open(cmd.Context(), paths.ScratchDir(dataDir), nil)
	if err != nil {
		return sysError(err)
	}
	if err := ds.Close(); err != nil {
		return sysError(fmt.Errorf("close dataset: %w", err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "sqlmaster initialized\nconfig: %s\ndata: %s\n", configPath, dataDir)
	return nil
}

// writeConfigIfMissing creates config.yaml with every setting at its default.
// If the file already exists it is left alone.
func writeConfigIfMissing(path, dataDir string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	cfg := configFile{
		DataDir:      dataDir,
		LogLevel:     types.LogLevelInfo,
		Theme:        types.ThemeAuto,
		AdvanceDelay: types.DefaultDelay.String(),
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
