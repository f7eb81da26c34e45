// cmd/gutter/main.go
package main

import (
	"fmt"
	"io"
	stlog "log" // standard log for fatal errors before the logger is ready
	"os"

	"github.com/bethropolis/gutter/internal/app"
	"github.com/bethropolis/gutter/internal/config"
	"github.com/bethropolis/gutter/internal/logger"
)

const version = "0.1.0"

func main() {
	// --- Flag & Config Loading ---
	flags := &config.Flags{}
	filePaths := flags.ParseFlags()

	if flags.Version != nil && *flags.Version {
		fmt.Printf("%s version %s\n", config.AppName, version)
		return
	}

	cfg, err := config.LoadConfig(*flags.ConfigFilePath, flags)
	if err != nil {
		stlog.Printf("Warning: failed to load config file: %v (using defaults)", err)
	}

	// --- Logger Initialization ---
	var logOutput io.Writer = os.Stderr
	logPath := cfg.Logger.LogFilePath
	if logPath == "" {
		logPath = config.DefaultLogFileName
	}
	if logPath != "-" {
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			stlog.Fatalf("Failed to open log file '%s': %v", logPath, err)
		}
		defer logFile.Close()
		logOutput = logFile
	}
	logger.InitWithConfig(cfg.Logger, logOutput)

	logger.Infof("Starting %s %s...", config.AppName, version)
	logger.Debugf("Diff throttle interval: %s", cfg.Diff.ThrottleInterval())
	if len(filePaths) > 0 {
		logger.Debugf("Opening %d file(s): %v", len(filePaths), filePaths)
	} else {
		logger.Debugf("No files specified, starting with an empty buffer.")
	}

	// --- Create and Run App ---
	gutterApp, err := app.NewApp(filePaths)
	if err != nil {
		logger.Errorf("Error initializing application: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := gutterApp.Run(); err != nil {
		logger.Errorf("Application exited with error: %v", err)
		os.Exit(1)
	}

	logger.Infof("%s finished.", config.AppName)
}
