package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"finx-auth/internal/config"
	"finx-auth/internal/logger"
)

// App is the session gateway: the HTTP server plus the services behind it.
type App struct {
	server  *http.Server
	cleanup func() error
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	router, cleanup, err := setupHTTP(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &App{
		server: &http.Server{
			Addr:              net.JoinHostPort("", cfg.AppPort),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		cleanup: cleanup,
	}, nil
}

// Run serves until Shutdown is called. A regular shutdown returns nil.
func (a *App) Run() error {
	logger.Info("gateway listening", map[string]any{
		"addr": a.server.Addr,
	})

	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and then releases storage, even when
// draining timed out.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if a.cleanup != nil {
		err = errors.Join(err, a.cleanup())
	}
	return err
}
