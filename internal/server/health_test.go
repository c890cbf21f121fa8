package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func healthRouter(h *HealthChecker) http.Handler {
	r := chi.NewRouter()
	h.RegisterHealthEndpoints(r)
	return r
}

func TestHealth_Liveness(t *testing.T) {
	h := NewHealthChecker(nil, HealthInfo{})
	h.SetReady(false)

	rec := get(t, healthRouter(h), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code, "liveness ignores readiness")
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealth_Readiness(t *testing.T) {
	sc := newTestServerContext(t, responderFunc(nil))
	h := NewHealthChecker(sc, HealthInfo{})
	r := healthRouter(h)

	rec := get(t, r, "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)

	h.SetReady(false)
	assert.False(t, h.IsReady())
	rec = get(t, r, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, healthStatusNotReady, body.Checks["ready"])
	assert.Equal(t, healthStatusOK, body.Checks["shutdown"])

	h.SetReady(true)
	require.NoError(t, sc.Shutdown())
	rec = get(t, r, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, healthStatusShuttingDown, body.Checks["shutdown"])
}

func TestHealth_Detailed(t *testing.T) {
	sc := newTestServerContext(t, responderFunc(nil))
	h := NewHealthChecker(sc, HealthInfo{Version: "1.2.3", CalendarID: "primary", TimeZone: "Europe/Berlin", MCP: true})
	r := healthRouter(h)

	rec := get(t, r, "/healthz/detailed")
	require.Equal(t, http.StatusOK, rec.Code)

	var body DetailedHealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, healthStatusOK, body.Status)
	assert.Equal(t, "1.2.3", body.Version)
	assert.Equal(t, "primary", body.CalendarID)
	assert.Equal(t, "Europe/Berlin", body.TimeZone)
	assert.True(t, body.MCP)
	assert.NotEmpty(t, body.Uptime)

	require.NoError(t, sc.Shutdown())
	rec = get(t, r, "/healthz/detailed")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, healthStatusShuttingDown, body.Status)
}
