package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"jobscout/internal/api/handlers"
	"jobscout/internal/api/middleware"
	"jobscout/internal/config"
	"jobscout/internal/query"
)

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, cfg *config.Config, svc handlers.SearchService) {
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSConfig())

	health := e.Group("/health")
	{
		health.GET("", handlers.HealthHandler)
		health.GET("/live", handlers.LivenessHandler)
		health.GET("/ready", handlers.ReadinessHandler(svc))
	}

	v1 := e.Group("/api/v1")
	{
		jobs := v1.Group("/jobs", middleware.TimeoutConfig(cfg.Server.RequestTimeout))
		{
			jobs.GET("", handlers.SearchHandler(svc))
			jobs.GET("/advanced", handlers.SearchHandler(svc))
			jobs.GET("/date-posted", handlers.FilterHandler(svc, query.FieldDatePosted))
			jobs.GET("/type", handlers.FilterHandler(svc, query.FieldJobType))
			jobs.GET("/experience", handlers.FilterHandler(svc, query.FieldExperience))
			jobs.GET("/company", handlers.FilterHandler(svc, query.FieldCompany))
			jobs.GET("/remote", handlers.RemoteHandler(svc))
		}

		v1.GET("/cache/stats", handlers.CacheStatsHandler(svc))
	}

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "jobscout",
			"version": handlers.Version,
			"status":  "running",
		})
	})
}
