package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/discoverly/visibility-service/internal/config"
	"github.com/discoverly/visibility-service/internal/handler"
	"github.com/discoverly/visibility-service/internal/middleware"
)

// RegisterRoutes sets up all HTTP routes on the Gin engine.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Deps, logger *zap.Logger) {
	healthHandler := handler.NewHealthHandler()
	testHandler := handler.NewTestHandler(deps.Orchestrator, deps.Competitive, logger)
	usageHandler := handler.NewUsageHandler(deps.Pairs, deps.CallRepo, logger)

	// Public endpoint (no auth)
	r.GET("/healthz", healthHandler.Healthz)

	api := r.Group("/api/v1")
	api.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	authed := api.Group("")
	authed.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	authed.Use(middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	{
		authed.POST("/tests/discoverability", testHandler.RunDiscoverability)
		authed.POST("/tests/competitive", testHandler.RunCompetitive)
		authed.GET("/providers", usageHandler.Providers)
		authed.GET("/usage", usageHandler.Usage)
	}
}
