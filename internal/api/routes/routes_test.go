package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout/internal/config"
	"jobscout/pkg/models"
	"jobscout/pkg/utils"
)

type fakeService struct {
	mu       sync.Mutex
	requests []models.SearchRequest

	result  models.ScrapeResult
	err     error
	block   bool
	pingErr error
}

func (f *fakeService) Search(ctx context.Context, req models.SearchRequest) (models.ScrapeResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return models.ScrapeResult{}, utils.NewRequestTimeoutError(ctx.Err())
	}
	return f.result, f.err
}

func (f *fakeService) Stats(ctx context.Context) models.CacheStatsResponse {
	return models.CacheStatsResponse{Entries: 3, LiveScrapes: 2, CacheHits: 5}
}

func (f *fakeService) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeService) last(t *testing.T) models.SearchRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func newServer(svc *fakeService, timeout time.Duration) *echo.Echo {
	cfg := config.Default()
	cfg.Server.RequestTimeout = timeout
	e := echo.New()
	SetupRoutes(e, cfg, svc)
	return e
}

func do(e *echo.Echo, target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func liveResult() models.ScrapeResult {
	return models.ScrapeResult{
		Jobs:   []models.JobListing{{Title: "Go Developer", Company: "Acme", URL: "https://www.linkedin.com/jobs/view/1"}},
		Source: models.SourceLive,
		Count:  1,
	}
}

func TestJobs_Success(t *testing.T) {
	svc := &fakeService{result: liveResult()}
	e := newServer(svc, time.Second)

	rec := do(e, "/api/v1/jobs?keyword=golang&location=Berlin&date_posted=week")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "live", body["source"])
	assert.EqualValues(t, 1, body["count"])
	assert.NotContains(t, body, "filter_warning")

	got := svc.last(t)
	assert.Equal(t, "golang", got.Keyword)
	assert.Equal(t, "Berlin", got.Location)
	assert.Equal(t, "week", got.DatePosted)
}

func TestJobs_CompanyRepeatedAndCommaSeparated(t *testing.T) {
	svc := &fakeService{result: liveResult()}
	e := newServer(svc, time.Second)

	rec := do(e, "/api/v1/jobs/company?keyword=go&location=remote&company=1441&company=acme,globex")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"1441", "acme,globex"}, svc.last(t).Companies)
}

func TestFilterEndpoints_RequireTheirParameter(t *testing.T) {
	tests := []struct {
		path  string
		field string
	}{
		{"/api/v1/jobs/date-posted", "date_posted"},
		{"/api/v1/jobs/type", "job_type"},
		{"/api/v1/jobs/experience", "experience"},
		{"/api/v1/jobs/company", "company"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			svc := &fakeService{result: liveResult()}
			e := newServer(svc, time.Second)

			// a blank company list counts as absent
			rec := do(e, tt.path+"?keyword=go&location=berlin&company=,")

			require.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, utils.ReasonMissingRequiredField, body.Error)
			assert.Equal(t, tt.field, body.Field)
			assert.Empty(t, svc.requests)
		})
	}
}

func TestRemote_DefaultsWorkplace(t *testing.T) {
	svc := &fakeService{result: liveResult()}
	e := newServer(svc, time.Second)

	require.Equal(t, http.StatusOK, do(e, "/api/v1/jobs/remote?keyword=go&location=berlin").Code)
	assert.Equal(t, "remote", svc.last(t).Workplace)

	require.Equal(t, http.StatusOK, do(e, "/api/v1/jobs/remote?keyword=go&location=berlin&workplace=hybrid").Code)
	assert.Equal(t, "hybrid", svc.last(t).Workplace)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		reason string
	}{
		{
			name:   "invalid filter",
			err:    utils.NewInvalidFilterValueError("job_type", "gig", []string{"fulltime", "parttime"}),
			status: http.StatusBadRequest,
			reason: utils.ReasonInvalidFilterValue,
		},
		{
			name:   "too many companies",
			err:    utils.NewTooManyCompaniesError(11, 10),
			status: http.StatusBadRequest,
			reason: utils.ReasonTooManyCompanies,
		},
		{
			name:   "launch failed",
			err:    utils.NewLaunchFailedError(errors.New("no chrome")),
			status: http.StatusBadGateway,
			reason: utils.ReasonLaunchFailed,
		},
		{
			name:   "navigation timed out twice",
			err:    utils.NewNavigationFailedError("https://example.com", true, context.DeadlineExceeded),
			status: http.StatusGatewayTimeout,
			reason: utils.ReasonNavigationFailed,
		},
		{
			name:   "no listings",
			err:    utils.NewNoListingsFoundError("layout changed"),
			status: http.StatusBadGateway,
			reason: utils.ReasonNoListingsFound,
		},
		{
			name:   "unclassified",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			reason: utils.ReasonInternal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newServer(&fakeService{err: tt.err}, time.Second)

			rec := do(e, "/api/v1/jobs?keyword=go&location=berlin", echo.HeaderXRequestID, "req-123")
			require.Equal(t, tt.status, rec.Code)

			body := decodeError(t, rec)
			assert.Equal(t, tt.reason, body.Error)
			assert.Equal(t, "req-123", body.RequestID)
			assert.Equal(t, "req-123", rec.Header().Get(echo.HeaderXRequestID))
		})
	}
}

func TestErrorMapping_AllowedValues(t *testing.T) {
	err := utils.NewInvalidFilterValueError("workplace", "moon", []string{"onsite", "remote", "hybrid"})
	rec := do(newServer(&fakeService{err: err}, time.Second), "/api/v1/jobs?keyword=go&location=berlin&workplace=moon")

	body := decodeError(t, rec)
	assert.Equal(t, "workplace", body.Field)
	assert.Equal(t, []string{"onsite", "remote", "hybrid"}, body.Allowed)
}

func TestJobs_RequestTimeoutIsGatewayTimeout(t *testing.T) {
	e := newServer(&fakeService{block: true}, 20*time.Millisecond)

	rec := do(e, "/api/v1/jobs?keyword=go&location=berlin")
	require.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, utils.ReasonRequestTimeout, decodeError(t, rec).Error)
}

func TestHealth(t *testing.T) {
	svc := &fakeService{}
	e := newServer(svc, time.Second)

	assert.Equal(t, http.StatusOK, do(e, "/health").Code)
	assert.Equal(t, http.StatusOK, do(e, "/health/live").Code)
	assert.Equal(t, http.StatusOK, do(e, "/health/ready").Code)

	svc.pingErr = errors.New("connection refused")
	rec := do(e, "/health/ready")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body models.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_ready", body.Status)
	assert.Equal(t, "connection refused", body.Checks["cache"])
}

func TestCacheStats(t *testing.T) {
	rec := do(newServer(&fakeService{}, time.Second), "/api/v1/cache/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var body models.CacheStatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Entries)
	assert.EqualValues(t, 5, body.CacheHits)
}

func TestUnknownRoute(t *testing.T) {
	rec := do(newServer(&fakeService{}, time.Second), "/api/v1/nope")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, decodeError(t, rec).RequestID)
}
