package router

import (
	"github.com/gin-gonic/gin"
	"github.com/pageza/recipebook/internal/api"
	"github.com/pageza/recipebook/internal/logger"
	"github.com/pageza/recipebook/internal/metrics"
	"github.com/pageza/recipebook/internal/middleware"
)

// Options carries the optional parts of the route table.
type Options struct {
	// UploadsDir is served under /uploads when set (local photo backend).
	UploadsDir string
	// CORSAllowedOrigins overrides middleware.DefaultAllowedOrigins.
	CORSAllowedOrigins []string
	// Limiter guards mutating routes when set.
	Limiter *middleware.RateLimiter
}

// SetupRouter configures the application routes
func SetupRouter(recipeHandler *api.RecipeHandler, log *logger.Logger, opts Options) *gin.Engine {
	router := gin.New()
	if gin.Mode() == gin.DebugMode {
		router.Use(gin.Logger())
	}
	router.Use(
		metrics.Instrument(),
		middleware.ErrorHandler(log),
		middleware.CORS(opts.CORSAllowedOrigins),
	)

	router.GET("/health", api.HealthCheck)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	router.StaticFS("/static", api.StaticFS())
	if opts.UploadsDir != "" {
		router.StaticFS("/uploads", gin.Dir(opts.UploadsDir, false))
	}

	var mutate []gin.HandlerFunc
	if opts.Limiter != nil {
		mutate = append(mutate, opts.Limiter.RateLimitMiddleware())
	}
	recipeHandler.RegisterRoutes(router, mutate...)

	return router
}
