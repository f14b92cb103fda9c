package app

import (
	"context"
	"net/http"

	"finx-auth/internal/auth/directus"
	"finx-auth/internal/auth/provider"
	"finx-auth/internal/auth/provider/google"
	"finx-auth/internal/auth/resolver"
	"finx-auth/internal/auth/tokenstore"
	"finx-auth/internal/authstate"
	"finx-auth/internal/config"
	"finx-auth/internal/logger"
	"finx-auth/internal/session"

	"github.com/prometheus/client_golang/prometheus"
)

// Services is the session stack shared by the gateway and the CLI.
type Services struct {
	Infra     *Infra
	Client    *directus.Client
	Tokens    *tokenstore.Store
	Manager   *session.Manager
	Providers *provider.Registry
	State     *authstate.Context
}

// NewServices wires storage, the identity client, the session manager and
// the auth context. reg may be nil.
func NewServices(ctx context.Context, cfg config.Config, reg prometheus.Registerer) (*Services, error) {
	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	client := directus.NewClient(cfg.DirectusURL, httpClient)
	tokens := tokenstore.New(infra.Store)

	var metrics *session.Metrics
	if reg != nil {
		metrics = session.NewMetrics(reg)
	}

	manager := session.NewManager(client, tokens, session.Options{
		Skew:        cfg.TokenSkew,
		ExpiresUnit: cfg.ExpiresUnit,
		Metrics:     metrics,
	})

	registry := provider.NewRegistry()
	if cfg.GoogleEnabled() {
		googleProvider, err := google.New(
			ctx,
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.GoogleRedirectURL,
			httpClient,
		)
		if err != nil {
			_ = infra.Close()
			return nil, err
		}
		registry = provider.NewRegistry(googleProvider)
	}

	state := authstate.New(manager, tokens, authstate.Options{
		Providers: registry,
		Resolver:  resolver.NewProfileResolver(),
	})

	logger.Info("session services ready", map[string]any{
		"store":     cfg.StoreDriver,
		"directus":  client.BaseURL(),
		"providers": registry.Names(),
	})

	return &Services{
		Infra:     infra,
		Client:    client,
		Tokens:    tokens,
		Manager:   manager,
		Providers: registry,
		State:     state,
	}, nil
}

func (s *Services) Close() error {
	s.State.Close()
	return s.Infra.Close()
}
