// Package main is the entry point for the swiftsnip HTTP server.
//
// main only reads configuration, builds the logger and the optional sandbox,
// and starts internal/server. All behaviour lives in the internal packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/swiftsnip/internal/config"
	"github.com/sakif/swiftsnip/internal/executor"
	"github.com/sakif/swiftsnip/internal/executor/docker"
	"github.com/sakif/swiftsnip/internal/model"
	"github.com/sakif/swiftsnip/internal/server"
)

func main() {
	os.Exit(run())
}

func run() int {
	// === 1. CONFIGURATION ===
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return 1
	}

	// === 2. LOGGING ===
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// === 3. DATABASE DIRECTORY ===
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		return 1
	}

	// === 4. EXECUTOR ===
	// Optional: without Docker the server still starts and /api/execute answers 503.
	var exec executor.Executor
	if cfg.ExecutorEnabled {
		dockerCfg := docker.DefaultConfig()
		dockerCfg.PoolSize = cfg.ExecutorPoolSize
		dockerCfg.Timeout = cfg.ExecutorTimeout

		dockerExec, err := docker.New(dockerCfg, logger)
		if err != nil {
			logger.Warn("Docker executor unavailable, /api/execute will answer 503",
				slog.String("error", err.Error()),
			)
		} else {
			defer dockerExec.Close()
			dockerExec.Warm(model.DefaultLanguage)
			exec = dockerExec
		}
	}

	// === 5. SERVER ===
	srv, err := server.New(cfg, logger, exec)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		return 1
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		return 1
	}
	return 0
}
