// Command server runs the finx session gateway.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finx-auth/internal/app"
	"finx-auth/internal/config"
	"finx-auth/internal/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", map[string]any{
			"error": err.Error(),
		})
	}
	logger.InitWithLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gateway, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal("gateway setup failed", map[string]any{
			"error": err.Error(),
			"store": cfg.StoreDriver,
		})
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- gateway.Run()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received", nil)
	case err := <-serveErr:
		if err != nil {
			logger.Error("gateway stopped serving", map[string]any{
				"error": err.Error(),
			})
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := gateway.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("graceful shutdown failed", map[string]any{
			"error": err.Error(),
		})
	}

	logger.Info("gateway stopped", nil)
}
