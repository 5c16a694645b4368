package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edualert/edualert/internal/infrastructure/scheduler"
	"github.com/edualert/edualert/internal/interface/http/handlers"
)

type stubHealthChecker struct {
	healthy bool
}

func (s *stubHealthChecker) Check(_ context.Context) handlers.HealthStatus {
	return handlers.HealthStatus{Healthy: s.healthy, Ready: s.healthy}
}
func (s *stubHealthChecker) AddCheck(string, handlers.HealthCheckFunc) {}
func (s *stubHealthChecker) RemoveCheck(string)                       {}

type noopJob struct{ name string }

func (j *noopJob) Name() string                { return j.name }
func (j *noopJob) Description() string         { return "noop" }
func (j *noopJob) Run(_ context.Context) error { return nil }

func newTestServer(t *testing.T, deps Dependencies) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	cfg.APIKeys = []string{"test-key"}
	return NewServer(cfg, deps)
}

func doRequest(s *Server, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) JSONResponse {
	t.Helper()
	var resp JSONResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, Dependencies{HealthChecker: &stubHealthChecker{healthy: true}})

	rec := doRequest(s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeResponse(t, rec).Success)

	s = newTestServer(t, Dependencies{HealthChecker: &stubHealthChecker{healthy: false}})
	rec = doRequest(s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLivenessIgnoresDependencyHealth(t *testing.T) {
	s := newTestServer(t, Dependencies{HealthChecker: &stubHealthChecker{healthy: false}})

	rec := doRequest(s, http.MethodGet, "/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t, Dependencies{})

	rec := doRequest(s, http.MethodGet, "/live", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = doRequest(s, http.MethodGet, "/live", map[string]string{"X-Request-ID": "req-42"})
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestUnknownPathReturnsNotFound(t *testing.T) {
	s := newTestServer(t, Dependencies{})

	rec := doRequest(s, http.MethodGet, "/api/v1/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQueryEndpointsWithoutHandlers(t *testing.T) {
	s := newTestServer(t, Dependencies{})

	paths := []string{
		"/api/v1/students/s-1/situation",
		"/api/v1/placements/class/c-1",
		"/api/v1/risk/report",
	}
	for _, path := range paths {
		rec := doRequest(s, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}

func TestJobEndpointsRequireAPIKey(t *testing.T) {
	sched := scheduler.NewScheduler(scheduler.DefaultSchedulerConfig())
	require.NoError(t, sched.Register(&noopJob{name: "send_alerts"}, scheduler.NewIntervalSchedule(time.Hour)))

	s := newTestServer(t, Dependencies{Scheduler: sched})

	rec := doRequest(s, http.MethodGet, "/api/v1/jobs", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(s, http.MethodGet, "/api/v1/jobs", map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(s, http.MethodGet, "/api/v1/jobs", map[string]string{"X-API-Key": "test-key"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeResponse(t, rec).Success)
}

func TestJobEndpointsDisabledWithoutKeys(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	s := NewServer(cfg, Dependencies{})

	rec := doRequest(s, http.MethodGet, "/api/v1/jobs", map[string]string{"X-API-Key": "anything"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRunJobEndpoint(t *testing.T) {
	sched := scheduler.NewScheduler(scheduler.DefaultSchedulerConfig())
	require.NoError(t, sched.Register(&noopJob{name: "send_alerts"}, scheduler.NewIntervalSchedule(time.Hour)))

	s := newTestServer(t, Dependencies{Scheduler: sched})
	auth := map[string]string{"X-API-Key": "test-key"}

	rec := doRequest(s, http.MethodPost, "/api/v1/jobs/send_alerts/run", auth)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, http.MethodPost, "/api/v1/jobs/no_such_job/run", auth)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimiting(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 3
	s := NewServer(cfg, Dependencies{})

	headers := map[string]string{"X-Forwarded-For": "10.0.0.1"}
	for i := 0; i < 3; i++ {
		rec := doRequest(s, http.MethodGet, "/live", headers)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doRequest(s, http.MethodGet, "/live", headers)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Another client is not throttled.
	rec = doRequest(s, http.MethodGet, "/live", map[string]string{"X-Forwarded-For": "10.0.0.2"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:1234"
	assert.Equal(t, "192.0.2.7", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", getClientIP(req))
}
