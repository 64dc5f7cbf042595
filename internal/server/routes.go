package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rmarek/headshot-service/internal/config"
	"github.com/rmarek/headshot-service/internal/handler"
	"github.com/rmarek/headshot-service/internal/middleware"
	"github.com/rmarek/headshot-service/internal/service"
	"github.com/rmarek/headshot-service/internal/storage"
)

// Deps holds everything the route handlers need. Dependencies are passed
// explicitly; each handler gets exactly the pieces it uses.
type Deps struct {
	Processor *service.ProcessService
	Jobs      storage.JobRepository
}

// RegisterRoutes sets up all HTTP routes on the Gin engine.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Deps, logger *zap.Logger) {
	healthHandler := handler.NewHealthHandler()
	presetHandler := handler.NewPresetHandler()
	processHandler := handler.NewProcessHandler(deps.Processor, cfg.Server.MaxUploadBytes, cfg.Pipeline.DefaultPreset, logger)
	adminHandler := handler.NewAdminHandler(deps.Jobs, logger)

	r.Use(middleware.RequestID())

	// Public endpoints (no auth)
	r.GET("/healthz", healthHandler.Healthz)

	// CORS applies to the entire API group.
	api := r.Group("/api/v1")
	api.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Authenticated API endpoints
	authed := api.Group("")
	authed.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	authed.Use(middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	{
		authed.POST("/process", processHandler.Process)
		authed.GET("/presets", presetHandler.List)
		authed.GET("/presets/:name", presetHandler.Show)
	}

	// Admin endpoints (separate auth with admin keys)
	admin := api.Group("/admin")
	admin.Use(middleware.AdminKeyAuth(cfg.Auth.AdminKeys))
	{
		admin.GET("/stats", adminHandler.Stats)
		admin.GET("/jobs", adminHandler.Jobs)
	}
}
