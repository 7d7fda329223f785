package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freightpulse/internal/config"
	apierrors "freightpulse/internal/errors"
)

func TestRouter(t *testing.T) {
	logger := testLogger()
	router := NewRouter(RouterConfig{
		Service: &fakeService{},
		Ledger:  &fakePinger{},
		MetricsHTTP: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
		UploadDir:    t.TempDir(),
		Version:      "test",
		RateLimit:    config.RateLimitConfig{Enabled: true, RPS: 100, Burst: 100},
		Logger:       logger,
		ErrorHandler: apierrors.NewErrorHandler(logger, false),
	})

	server := httptest.NewServer(router)
	defer server.Close()

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{name: "history", path: "/api/history", wantStatus: http.StatusOK},
		{name: "latest on empty history", path: "/api/history/latest", wantStatus: http.StatusNotFound},
		{name: "health", path: "/api/healthz", wantStatus: http.StatusOK},
		{name: "metrics", path: "/metrics", wantStatus: http.StatusOK},
		{name: "unknown route", path: "/api/nope", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(server.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestRouterRequestIDPropagation(t *testing.T) {
	logger := testLogger()
	router := NewRouter(RouterConfig{
		Service:      &fakeService{},
		Ledger:       &fakePinger{},
		UploadDir:    t.TempDir(),
		Version:      "test",
		Logger:       logger,
		ErrorHandler: apierrors.NewErrorHandler(logger, false),
	})

	server := httptest.NewServer(router)
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-abc-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "req-abc-123", resp.Header.Get("X-Request-ID"))
}
