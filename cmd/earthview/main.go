// Package main is the entry point for the earthview globe viewer.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/earthview/internal/app"
	"github.com/Faultbox/earthview/internal/config"
	"github.com/Faultbox/earthview/internal/engine/window"
	"github.com/Faultbox/earthview/internal/logger"
)

// glProblem is shown when the graphics stack cannot be used.
const glProblem = "There was a problem with OpenGL. Please restart earthview."

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== earthview ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg)
	if err != nil {
		logger.Error("failed to start", zap.Error(err))
		window.ShowError(nil, app.Title, glProblem)
		logger.Sync()
		os.Exit(1)
	}

	if err := a.Run(ctx); err != nil {
		logger.Error("render error", zap.Error(err))
		window.ShowError(nil, app.Title, glProblem)
		a.Close()
		logger.Sync()
		os.Exit(1)
	}

	a.Close()
	logger.Info("earthview closed normally")
}
