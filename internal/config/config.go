// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bethropolis/gutter/internal/logger"
)

// Config holds the application's combined configuration.
type Config struct {
	Logger logger.Config `toml:"logger"` // Embed logger config under [logger] table
	Editor EditorConfig  `toml:"editor"` // Editor-specific settings
	Diff   DiffConfig    `toml:"diff"`   // Dirty-diff engine settings
}

// EditorConfig holds editor-specific settings.
type EditorConfig struct {
	TabWidth            int  `toml:"tab_width"`
	ScrollOff           int  `toml:"scroll_off"`
	SystemClipboard     bool `toml:"system_clipboard"`
	StatusBarHeight     int  `toml:"status_bar_height"`
	ShowChangesInGutter bool `toml:"show_changes_in_gutter"`
}

// DiffConfig holds settings for the dirty-diff coordination engine.
type DiffConfig struct {
	// ThrottleIntervalMs is the minimum spacing between diff computations
	// for one buffer while the user is typing.
	ThrottleIntervalMs int `toml:"throttle_interval_ms"`
	// IgnoreTrimWhitespace makes leading/trailing whitespace-only edits
	// invisible to the diff.
	IgnoreTrimWhitespace bool `toml:"ignore_trim_whitespace"`
}

// ThrottleInterval returns the throttle spacing as a duration.
func (d DiffConfig) ThrottleInterval() time.Duration {
	return time.Duration(d.ThrottleIntervalMs) * time.Millisecond
}

var (
	loadedConfig *Config
	loadOnce     sync.Once
	loadErr      error
)

// NewDefaultConfig creates a Config struct with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Logger: logger.Config{
			LogLevel:    "info",
			LogFilePath: "", // Empty means default path logic in logger.Init applies
		},
		Editor: EditorConfig{
			TabWidth:            DefaultTabWidth,
			ScrollOff:           DefaultScrollOff,
			SystemClipboard:     SystemClipboard,
			StatusBarHeight:     StatusBarHeight,
			ShowChangesInGutter: DefaultShowChangesInGutter,
		},
		Diff: DiffConfig{
			ThrottleIntervalMs:   DefaultThrottleIntervalMs,
			IgnoreTrimWhitespace: DefaultIgnoreTrimWhitespace,
		},
	}
}

// loadFromFile attempts to load configuration from a TOML file.
// It returns the loaded config and an error (nil if file not found or loaded successfully).
func loadFromFile(filePath string, verbose bool) (*Config, error) {
	cfg := &Config{} // Start empty, we'll merge later
	_, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		if verbose {
			logger.Debugf("Config file not found: %s", filePath)
		}
		return cfg, nil // File not found is not an error here
	}
	if err != nil {
		return cfg, fmt.Errorf("error checking config file '%s': %w", filePath, err)
	}

	metadata, err := toml.DecodeFile(filePath, cfg)
	if err != nil {
		return cfg, fmt.Errorf("failed to parse config file '%s': %w", filePath, err)
	}
	if len(metadata.Undecoded()) > 0 && verbose {
		logger.Warnf("Config file '%s': Unrecognized keys: %v", filePath, metadata.Undecoded())
	}
	return cfg, nil
}

// validate checks config values and resets invalid ones to defaults.
func (c *Config) validate() {
	defaults := NewDefaultConfig()

	if c.Editor.TabWidth <= 0 {
		c.Editor.TabWidth = defaults.Editor.TabWidth
	}
	if c.Editor.ScrollOff < 0 { // Allow 0
		c.Editor.ScrollOff = defaults.Editor.ScrollOff
	}
	if c.Editor.StatusBarHeight <= 0 {
		c.Editor.StatusBarHeight = defaults.Editor.StatusBarHeight
	}
	if c.Logger.LogLevel == "" {
		c.Logger.LogLevel = defaults.Logger.LogLevel
	}
	if c.Diff.ThrottleIntervalMs <= 0 {
		c.Diff.ThrottleIntervalMs = defaults.Diff.ThrottleIntervalMs
	}
}

// LoadConfig orchestrates loading defaults, file, applying flags, and validation.
// It should be called only once, typically from main.
func LoadConfig(configFilePath string, flags *Flags) (*Config, error) {
	loadOnce.Do(func() {
		// During initial load, avoid logging as logger isn't initialized yet
		verbose := false

		cfg := NewDefaultConfig() // Start with defaults

		// Determine effective config file path
		effectivePath := configFilePath
		if effectivePath == "" { // If flag not set, try default location
			configDir, err := os.UserConfigDir()
			if err == nil {
				effectivePath = filepath.Join(configDir, ConfigDirName, DefaultConfigFileName)
			} else {
				effectivePath = "" // Cannot load default path
			}
		}

		// Load from file if path is determined
		if effectivePath != "" {
			fileCfg, err := loadFromFile(effectivePath, verbose)
			if err != nil {
				loadErr = err // Store error to return later (can't log yet)
			} else if fileCfg != nil {
				if fileCfg.Logger.LogLevel != "" {
					cfg.Logger = fileCfg.Logger
				}
				if fileCfg.Editor.TabWidth > 0 {
					cfg.Editor.TabWidth = fileCfg.Editor.TabWidth
				}
				if fileCfg.Editor.ScrollOff >= 0 {
					cfg.Editor.ScrollOff = fileCfg.Editor.ScrollOff
				}
				cfg.Editor.SystemClipboard = fileCfg.Editor.SystemClipboard
				cfg.Editor.ShowChangesInGutter = fileCfg.Editor.ShowChangesInGutter
				if fileCfg.Diff.ThrottleIntervalMs > 0 {
					cfg.Diff.ThrottleIntervalMs = fileCfg.Diff.ThrottleIntervalMs
				}
				cfg.Diff.IgnoreTrimWhitespace = fileCfg.Diff.IgnoreTrimWhitespace
			}
		}

		// Apply flag overrides (if flags were parsed)
		if flags != nil {
			flags.ApplyOverrides(cfg, verbose)
		}

		cfg.validate()

		loadedConfig = cfg // Store globally
	})

	return loadedConfig, loadErr
}

// Get returns the loaded application configuration. Panics if LoadConfig wasn't called.
func Get() *Config {
	if loadedConfig == nil {
		// This indicates a programming error - LoadConfig should be called in main.
		panic("config.Get() called before config.LoadConfig()")
	}
	return loadedConfig
}

// SetShowChangesInGutter flips the gutter-marker setting at runtime (bound to
// a key in the host editor). The next diff cycle picks it up.
func SetShowChangesInGutter(show bool) {
	if loadedConfig != nil {
		loadedConfig.Editor.ShowChangesInGutter = show
	}
}
