package app

import (
	"context"
	"net/http"

	"finx-auth/internal/auth/handler"
	"finx-auth/internal/config"
	"finx-auth/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	services, err := NewServices(ctx, cfg, registry)
	if err != nil {
		return nil, nil, err
	}

	// Restore the previous session in the background; routes report
	// loading until it completes.
	services.State.Start(context.WithoutCancel(ctx))

	router := newRouter(services, registry)

	return router, services.Close, nil
}

func newRouter(services *Services, registry *prometheus.Registry) *gin.Engine {
	authHandler := handler.NewHandler(
		services.Providers,
		services.State,
		services.Manager,
		services.Client.BaseURL(),
	)

	authMiddleware := middleware.NewAuthMiddleware(services.State)
	httpMetrics := middleware.NewHTTPMetrics(registry)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		httpMetrics.Handler(),
		middleware.RequestLogger(),
	)

	// ----------------------------
	// Public Routes
	// ----------------------------

	authHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// ----------------------------
	// Protected API Routes
	// ----------------------------

	api := router.Group("/api")
	api.Use(middleware.GinRequireAuth(authMiddleware))
	authHandler.RegisterAPI(api)

	return router
}
