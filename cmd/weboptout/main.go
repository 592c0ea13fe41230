package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexjc/weboptout/internal/config"
	"github.com/alexjc/weboptout/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	root := newRootCommand(ctx, cfg, logger)
	if err := root.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
