package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"jobscout/internal/api/middleware"
	"jobscout/internal/logging"
	"jobscout/pkg/models"
)

// Version is stamped at build time with -ldflags "-X ..."
var Version = "dev"

var startTime = time.Now()

// HealthHandler handles health check requests
func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   Version,
		Uptime:    time.Since(startTime),
		Checks:    map[string]string{"api": "ok"},
	})
}

// LivenessHandler handles liveness probe requests
func LivenessHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   Version,
		Uptime:    time.Since(startTime),
	})
}

// ReadinessHandler reports ready only while the cache store answers
func ReadinessHandler(svc SearchService) echo.HandlerFunc {
	return func(c echo.Context) error {
		status, code := "ready", http.StatusOK
		checks := map[string]string{"api": "ok", "cache": "ok"}

		if err := svc.Ping(c.Request().Context()); err != nil {
			logging.LogWithRequestID(middleware.GetRequestID(c)).Warn("Readiness check failed", map[string]interface{}{
				"error": err.Error(),
			})
			status, code = "not_ready", http.StatusServiceUnavailable
			checks["cache"] = err.Error()
		}

		return c.JSON(code, models.HealthResponse{
			Status:    status,
			Timestamp: time.Now(),
			Version:   Version,
			Uptime:    time.Since(startTime),
			Checks:    checks,
		})
	}
}
