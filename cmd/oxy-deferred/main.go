// Package main is the entry point for the oxy-deferred viewer.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-deferred/engine/config"
	"github.com/Carmen-Shannon/oxy-deferred/engine/logger"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	fileCfg := logger.FileConfig{}
	if cfg.Logging.File != "" {
		fileCfg = logger.DefaultFileConfig(cfg.Logging.File)
		fileCfg.MaxSizeMB = cfg.Logging.MaxSizeMB
		fileCfg.MaxBackups = cfg.Logging.MaxBackups
	}
	if err := logger.InitWithFileConfig(cfg.Logging.Level, fileCfg, true); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== oxy-deferred ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if path := config.ScreenshotPath(); path != "" {
		if err := screenshot(cfg, path); err != nil {
			logger.Error("screenshot failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	if err := run(cfg); err != nil {
		logger.Error("renderer error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("window closed normally")
}
