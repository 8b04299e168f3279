package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/joho/godotenv"

	"gotendency/internal/config"
	"gotendency/internal/container"
	"gotendency/internal/logging"
)

func main() {
	bootLogger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		level.Debug(bootLogger).Log("msg", "no .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		level.Error(bootLogger).Log("msg", "failed to load configuration", "err", err)
		os.Exit(1)
	}

	logger, err := logging.New(os.Stderr, appConfig.Log.Format, appConfig.Log.Level)
	if err != nil {
		level.Error(bootLogger).Log("msg", "failed to build logger", "err", err)
		os.Exit(1)
	}

	appContainer, err := container.New(appConfig, logger)
	if err != nil {
		level.Error(logger).Log("msg", "failed to create application container", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	level.Info(logger).Log("msg", "starting", "port", appConfig.Server.Port, "ops_enabled", appConfig.Ops.Enabled, "ops_port", appConfig.Ops.Port)
	if err := appContainer.Run(ctx); err != nil {
		level.Error(logger).Log("msg", "server stopped", "err", err)
		os.Exit(1)
	}
	level.Info(logger).Log("msg", "stopped")
}
