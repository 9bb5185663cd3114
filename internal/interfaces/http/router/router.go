// Package router wires the gin engine: middleware stack and route
// registration.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/payroll/backend/internal/infrastructure/config"
	"github.com/payroll/backend/internal/infrastructure/logger"
	"github.com/payroll/backend/internal/interfaces/http/handler"
	"github.com/payroll/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Options configures router construction.
type Options struct {
	Config           *config.Config
	Logger           *zap.Logger
	InsuranceHandler *handler.InsuranceHandler
	HealthHandler    *handler.HealthHandler
}

// New builds the gin engine with the standard middleware stack and all
// routes registered.
func New(opts Options) *gin.Engine {
	if opts.Config != nil && opts.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if opts.Config != nil && len(opts.Config.HTTP.TrustedProxies) > 0 {
		_ = engine.SetTrustedProxies(opts.Config.HTTP.TrustedProxies)
	}

	engine.Use(middleware.RequestID())
	if opts.Logger != nil {
		engine.Use(logger.GinMiddleware(opts.Logger))
		engine.Use(logger.Recovery(opts.Logger))
	} else {
		engine.Use(gin.Recovery())
	}

	corsCfg := middleware.DefaultCORSConfig()
	if opts.Config != nil {
		corsCfg.AllowOrigins = opts.Config.HTTP.CORSAllowOrigins
	}
	engine.Use(middleware.CORSWithConfig(corsCfg))

	if opts.Config != nil && opts.Config.Telemetry.Enabled {
		engine.Use(otelgin.Middleware(opts.Config.Telemetry.ServiceName))
	}

	if opts.HealthHandler != nil {
		engine.GET("/health", opts.HealthHandler.Check)
	}

	api := engine.Group("/api/v1")
	if opts.InsuranceHandler != nil {
		registerInsuranceRoutes(api, opts.InsuranceHandler)
	}

	return engine
}

func registerInsuranceRoutes(api *gin.RouterGroup, h *handler.InsuranceHandler) {
	calculations := api.Group("/insurance/calculations")
	{
		calculations.POST("/single", h.CalculateSingle)
		calculations.POST("/employee", h.CalculateEmployee)
		calculations.POST("/batch", h.CalculateBatch)
		calculations.POST("/batch/export", h.ExportBatch)
	}
}
