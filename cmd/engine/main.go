package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vestnik-hq/vestnik-content-engine/internal/app"
	"github.com/vestnik-hq/vestnik-content-engine/internal/config"
	"github.com/vestnik-hq/vestnik-content-engine/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "engine start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Close()

	log.InfoObj("engine starting", "config", map[string]any{
		"app":         cfg.AppName,
		"env":         cfg.Env,
		"sources":     cfg.SourcesFile,
		"publishers":  cfg.PublishersFile,
		"storage":     cfg.StoragePath,
		"concurrency": cfg.ConcurrencyLimit,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := app.NewEngine(ctx, cfg, log)
	if err != nil {
		log.ErrorObj("failed to initialize engine", "error", err.Error())
		return err
	}

	if err := engine.Run(ctx); err != nil {
		return fmt.Errorf("engine run: %w", err)
	}

	return nil
}
