package dashboard

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/stockpulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

// refreshedServer returns a server whose refresher has finished one tick against a store that is down.
func refreshedServer(t *testing.T) (*Server, *Metrics) {
	t.Helper()
	metrics := NewMetrics()
	r := NewRefresher(downStore(), testOptions, time.Hour, 0, metrics, nil)
	r.tick(context.Background())
	return NewServer(r, metrics, nil), metrics
}

func TestServer_WarmingUp(t *testing.T) {
	r := NewRefresher(downStore(), testOptions, time.Hour, 0, nil, nil)
	s := NewServer(r, nil, nil)

	for _, path := range []string{"/api/dashboard", "/api/history", "/api/session", "/api/changes"} {
		rec := serve(t, s, http.MethodGet, path)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "warming up")
	}

	rec := serve(t, s, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "warming up")

	rec = serve(t, s, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code, "no metrics route without a registry")
}

func TestServer_Sections(t *testing.T) {
	s, _ := refreshedServer(t)

	rec := serve(t, s, http.MethodGet, "/api/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	var d schema.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, schema.OutcomeError, d.History.Outcome)

	rec = serve(t, s, http.MethodGet, "/api/history")
	require.Equal(t, http.StatusOK, rec.Code)
	var history schema.HistoryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Equal(t, "store unavailable: connection refused", history.Diagnostic)
	assert.NotNil(t, history.Points)

	rec = serve(t, s, http.MethodGet, "/api/session")
	require.Equal(t, http.StatusOK, rec.Code)
	var session schema.SessionSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.Equal(t, "Unavailable", session.Label)

	rec = serve(t, s, http.MethodGet, "/api/changes")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"outcome":"error"`)
}

func TestServer_Health(t *testing.T) {
	s, _ := refreshedServer(t)
	rec := serve(t, s, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "error", body["outcome"])
	assert.NotEmpty(t, body["refreshed_at"])
}

func TestServer_Refresh(t *testing.T) {
	s, _ := refreshedServer(t)

	rec := serve(t, s, http.MethodPost, "/api/refresh")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), `"queued"`)

	rec = serve(t, s, http.MethodPost, "/api/refresh")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), "already queued")

	rec = serve(t, s, http.MethodGet, "/api/refresh")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	s, _ := refreshedServer(t)
	rec := serve(t, s, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `stockpulse_refresh_total{outcome="error"} 1`)
	assert.Contains(t, body, "stockpulse_refresh_duration_seconds_count 1")
	assert.Contains(t, body, "stockpulse_history_points 0")
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	r := NewRefresher(downStore(), testOptions, time.Hour, 0, nil, nil)
	s := NewServer(r, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout):
		t.Fatal("server did not stop")
	}
}

func TestServer_RunFailsOnBusyAddress(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	r := NewRefresher(downStore(), testOptions, time.Hour, 0, nil, nil)
	s := NewServer(r, nil, nil)
	err = s.Run(context.Background(), ln.Addr().String())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "address already in use") || strings.Contains(err.Error(), "bind"))
}
