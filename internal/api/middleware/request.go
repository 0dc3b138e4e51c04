package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"jobscout/internal/logging"
	"jobscout/pkg/utils"
)

// RequestID stamps every request and response with X-Request-ID, keeping one
// supplied by the caller
func RequestID() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: utils.GenerateRequestID,
		RequestIDHandler: func(c echo.Context, id string) {
			c.Set("request_id", id)
		},
	})
}

// GetRequestID returns the id assigned by RequestID
func GetRequestID(c echo.Context) string {
	if id, ok := c.Get("request_id").(string); ok && id != "" {
		return id
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// RequestLogger writes one structured line per request through the global logger
func RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := map[string]interface{}{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
			}
			logger := logging.LogWithRequestID(v.RequestID).WithFields(fields)
			switch {
			case v.Error != nil && v.Status >= 500:
				logger.Error("Request failed", map[string]interface{}{"error": v.Error.Error()})
			case v.Error != nil:
				logger.Warn("Request rejected", map[string]interface{}{"error": v.Error.Error()})
			default:
				logger.Info("Request completed")
			}
			return nil
		},
	})
}
