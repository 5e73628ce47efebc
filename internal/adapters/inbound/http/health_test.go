package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// mockHealthChecker is a test implementation of HealthChecker
type mockHealthChecker struct {
	ready   bool
	healthy bool
}

func (m *mockHealthChecker) IsReady() bool   { return m.ready }
func (m *mockHealthChecker) IsHealthy() bool { return m.healthy }

func newHealthTestServer(checker *mockHealthChecker, shuttingDown bool) *Server {
	var flag atomic.Bool
	flag.Store(shuttingDown)
	return NewServer(ServerConfig{
		Addr:   ":0",
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, &fakeService{}, checker, nil, &flag)
}

func TestServer_Ready(t *testing.T) {
	tests := []struct {
		name           string
		ready          bool
		shuttingDown   bool
		expectedStatus int
		expectedBody   string
	}{
		{"ready returns 200", true, false, http.StatusOK, "ready"},
		{"not ready returns 503", false, false, http.StatusServiceUnavailable, "not_ready"},
		{"shutting down returns 503", true, true, http.StatusServiceUnavailable, "shutting_down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newHealthTestServer(&mockHealthChecker{ready: tt.ready, healthy: true}, tt.shuttingDown)

			req := httptest.NewRequest("GET", "/health/ready", nil)
			w := httptest.NewRecorder()
			s.handleReady(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			var resp map[string]string
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp["status"] != tt.expectedBody {
				t.Errorf("expected status %q, got %q", tt.expectedBody, resp["status"])
			}
		})
	}
}

func TestServer_Live(t *testing.T) {
	tests := []struct {
		name           string
		healthy        bool
		shuttingDown   bool
		expectedStatus int
		expectedBody   string
	}{
		{"healthy returns 200", true, false, http.StatusOK, "healthy"},
		{"unhealthy returns 503", false, false, http.StatusServiceUnavailable, "unhealthy"},
		{"shutting down returns 503", true, true, http.StatusServiceUnavailable, "shutting_down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newHealthTestServer(&mockHealthChecker{ready: true, healthy: tt.healthy}, tt.shuttingDown)

			req := httptest.NewRequest("GET", "/health/live", nil)
			w := httptest.NewRecorder()
			s.handleLive(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			var resp map[string]string
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp["status"] != tt.expectedBody {
				t.Errorf("expected status %q, got %q", tt.expectedBody, resp["status"])
			}
		})
	}
}

func TestServer_Health(t *testing.T) {
	tests := []struct {
		name           string
		ready          bool
		healthy        bool
		shuttingDown   bool
		expectedStatus int
		expectedBody   string
	}{
		{"all good returns ok", true, true, false, http.StatusOK, "ok"},
		{"not ready returns degraded", false, true, false, http.StatusServiceUnavailable, "degraded"},
		{"unhealthy returns degraded", true, false, false, http.StatusServiceUnavailable, "degraded"},
		{"shutting down", true, true, true, http.StatusServiceUnavailable, "shutting_down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newHealthTestServer(&mockHealthChecker{ready: tt.ready, healthy: tt.healthy}, tt.shuttingDown)

			req := httptest.NewRequest("GET", "/health", nil)
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			var resp map[string]any
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp["status"] != tt.expectedBody {
				t.Errorf("expected status %q, got %v", tt.expectedBody, resp["status"])
			}
			if resp["shuttingDown"] != tt.shuttingDown {
				t.Errorf("expected shuttingDown %v, got %v", tt.shuttingDown, resp["shuttingDown"])
			}
		})
	}
}
