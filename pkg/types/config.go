package types

import (
	"errors"
	"time"
)

// Config holds the runtime settings of an interactive session.
type Config struct {
	DataDir      string        `json:"data_dir" yaml:"data_dir"`
	LogLevel     string        `json:"log_level" yaml:"log_level"`
	LogFile      string        `json:"log_file" yaml:"log_file"`
	Theme        string        `json:"theme" yaml:"theme"`
	AdvanceDelay time.Duration `json:"advance_delay" yaml:"advance_delay"`
	Demo         bool          `json:"demo" yaml:"demo"`
}

// Supported log levels.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// Supported mission panel themes, named after the glamour standard styles.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
	ThemeNoTTY = "notty"
	ThemeASCII = "ascii"
	ThemePlain = "plain"
)

// DefaultDelay is how long the terminal keeps a passed mission on screen
// before showing the next one.
const DefaultDelay = 1200 * time.Millisecond

// Config validation errors.
var (
	ErrLogLevelUnknown = errors.New("unknown log level")
	ErrThemeUnknown    = errors.New("unknown theme")
	ErrDelayInvalid    = errors.New("advance delay must not be negative")
)

var knownLogLevels = map[string]bool{
	LogLevelDebug: true,
	LogLevelInfo:  true,
	LogLevelWarn:  true,
	LogLevelError: true,
}

var knownThemes = map[string]bool{
	ThemeAuto:  true,
	ThemeDark:  true,
	ThemeLight: true,
	ThemeNoTTY: true,
	ThemeASCII: true,
	ThemePlain: true,
}

// Validate checks that the Config is well-formed. An empty log level or
// theme is accepted and means the default.
func (c Config) Validate() error {
	if c.LogLevel != "" && !knownLogLevels[c.LogLevel] {
		return ErrLogLevelUnknown
	}
	if c.Theme != "" && !knownThemes[c.Theme] {
		return ErrThemeUnknown
	}
	if c.AdvanceDelay < 0 {
		return ErrDelayInvalid
	}
	return nil
}
