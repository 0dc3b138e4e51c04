package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"jobscout/internal/api/middleware"
	"jobscout/internal/logging"
	"jobscout/internal/query"
	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

// SearchHandler serves /jobs and /jobs/advanced: any combination of filters
func SearchHandler(svc SearchService) echo.HandlerFunc {
	return searchHandler(svc, "", nil)
}

// FilterHandler serves the single-filter endpoints, which insist on their
// own parameter being present
func FilterHandler(svc SearchService, required string) echo.HandlerFunc {
	return searchHandler(svc, required, nil)
}

// RemoteHandler searches remote roles unless the caller names another workplace
func RemoteHandler(svc SearchService) echo.HandlerFunc {
	return searchHandler(svc, "", func(req *models.SearchRequest) {
		if strings.TrimSpace(req.Workplace) == "" {
			req.Workplace = "remote"
		}
	})
}

func searchHandler(svc SearchService, required string, defaults func(*models.SearchRequest)) echo.HandlerFunc {
	return func(c echo.Context) error {
		logger := logging.LogWithRequestID(middleware.GetRequestID(c))

		req, err := bindSearchRequest(c)
		if err != nil {
			return err
		}
		if required != "" && !present(req, required) {
			return utils.NewMissingFieldError(required)
		}
		if defaults != nil {
			defaults(&req)
		}

		result, err := svc.Search(c.Request().Context(), req)
		if err != nil {
			return err
		}

		logger.Info("Search served", map[string]interface{}{
			"source": result.Source,
			"count":  result.Count,
		})
		return c.JSON(http.StatusOK, result)
	}
}

// bindSearchRequest reads the filters from the query string. company may be
// repeated, comma-separated, or both.
func bindSearchRequest(c echo.Context) (models.SearchRequest, error) {
	var req models.SearchRequest
	err := echo.QueryParamsBinder(c).
		String(query.FieldKeyword, &req.Keyword).
		String(query.FieldLocation, &req.Location).
		String(query.FieldDatePosted, &req.DatePosted).
		String(query.FieldJobType, &req.JobType).
		String(query.FieldExperience, &req.Experience).
		String(query.FieldWorkplace, &req.Workplace).
		Strings(query.FieldCompany, &req.Companies).
		BindError()
	if err != nil {
		return req, echo.NewHTTPError(http.StatusBadRequest, "malformed query string").SetInternal(err)
	}
	return req, nil
}

func present(req models.SearchRequest, field string) bool {
	switch field {
	case query.FieldCompany:
		for _, c := range req.Companies {
			if strings.Trim(c, ", \t") != "" {
				return true
			}
		}
		return false
	case query.FieldDatePosted:
		return strings.TrimSpace(req.DatePosted) != ""
	case query.FieldJobType:
		return strings.TrimSpace(req.JobType) != ""
	case query.FieldExperience:
		return strings.TrimSpace(req.Experience) != ""
	case query.FieldWorkplace:
		return strings.TrimSpace(req.Workplace) != ""
	}
	return true
}
