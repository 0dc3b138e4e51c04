package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CacheStatsHandler exposes cache size and scrape counters
func CacheStatsHandler(svc SearchService) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, svc.Stats(c.Request().Context()))
	}
}
