// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, DefaultTabWidth, cfg.Editor.TabWidth)
	assert.True(t, cfg.Editor.ShowChangesInGutter)
	assert.Equal(t, DefaultThrottleIntervalMs, cfg.Diff.ThrottleIntervalMs)
	assert.True(t, cfg.Diff.IgnoreTrimWhitespace)
	assert.Equal(t, "info", cfg.Logger.LogLevel)
}

func TestThrottleIntervalConversion(t *testing.T) {
	d := DiffConfig{ThrottleIntervalMs: 250}
	assert.Equal(t, 250*time.Millisecond, d.ThrottleInterval())
}

func TestValidateResetsInvalidValues(t *testing.T) {
	cfg := &Config{}
	cfg.Editor.TabWidth = -3
	cfg.Editor.ScrollOff = -1
	cfg.Diff.ThrottleIntervalMs = 0
	cfg.validate()

	assert.Equal(t, DefaultTabWidth, cfg.Editor.TabWidth)
	assert.Equal(t, DefaultScrollOff, cfg.Editor.ScrollOff)
	assert.Equal(t, DefaultThrottleIntervalMs, cfg.Diff.ThrottleIntervalMs)
	assert.Equal(t, "info", cfg.Logger.LogLevel)
}

func TestLoadFromFileParsesToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[editor]
tab_width = 8
show_changes_in_gutter = false

[diff]
throttle_interval_ms = 500
ignore_trim_whitespace = false

[logger]
log_level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := loadFromFile(path, false)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Editor.TabWidth)
	assert.False(t, cfg.Editor.ShowChangesInGutter)
	assert.Equal(t, 500, cfg.Diff.ThrottleIntervalMs)
	assert.False(t, cfg.Diff.IgnoreTrimWhitespace)
	assert.Equal(t, "debug", cfg.Logger.LogLevel)
}

func TestLoadFromFileMissingIsNotAnError(t *testing.T) {
	cfg, err := loadFromFile(filepath.Join(t.TempDir(), "absent.toml"), false)
	require.NoError(t, err)
	assert.Zero(t, cfg.Editor.TabWidth)
}

func TestSplitCommaList(t *testing.T) {
	assert.Nil(t, splitCommaList(""))
	assert.Equal(t, []string{"a", "b"}, splitCommaList("a,b"))
	assert.Equal(t, []string{"a", "b"}, splitCommaList(" a , , b "))
}
