// Package paths resolves the configuration and data directories.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// appName names the per-user directories.
const appName = "sqlmaster"

// File names inside the resolved directories.
const (
	ConfigFileName = "config.yaml"
	LogFileName    = "sqlmaster.log"
	ScratchDirName = "scratch"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "SQLMASTER_CONFIG_DIR"
	EnvDataDir   = "SQLMASTER_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/sqlmaster (fallback ~/.config/sqlmaster)
// macOS:   ~/Library/Application Support/sqlmaster
// Windows: %APPDATA%/sqlmaster
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_CONFIG_HOME", ".config")
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

// DefaultDataDir returns the platform-specific default data directory, where
// working datasets live while a session runs.
//
// Linux:   $XDG_DATA_HOME/sqlmaster (fallback ~/.local/share/sqlmaster)
// macOS:   ~/Library/Application Support/sqlmaster
// Windows: %APPDATA%/sqlmaster
func DefaultDataDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	}
	// macOS and Windows: same as config dir.
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

func xdgDir(env, fallback string) (string, error) {
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, appName), nil
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > SQLMASTER_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > configValue > SQLMASTER_DATA_DIR env > DefaultDataDir().
func ResolveDataDir(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultDataDir()
}

// ScratchDir returns the directory for working datasets under dataDir.
func ScratchDir(dataDir string) string {
	return filepath.Join(dataDir, ScratchDirName)
}
