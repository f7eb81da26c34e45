package config

import "time"

// Base application details
const AppName = "gutter"
const ConfigDirName = "gutter"
const DefaultConfigFileName = "config.toml" // Main config file
const DefaultLogFileName = "gutter.log"

// UI Layout
const StatusBarHeight = 1
const MarkerColumnWidth = 1 // Width of the dirty-diff marker column

// Status Bar
const MessageTimeout = 4 * time.Second

// Editor defaults
const DefaultTabWidth = 4
const DefaultScrollOff = 3
const SystemClipboard = true
const DefaultShowChangesInGutter = true

// Diff defaults
const DefaultThrottleIntervalMs = 200
const DefaultIgnoreTrimWhitespace = true
