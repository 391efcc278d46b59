package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/muliwe/go-triangle-classifier/internal/logger"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.ShutdownTimeout = 2 * time.Second
	cfg.LoggerConfig = logger.Config{LogDir: t.TempDir(), FileName: "test.jsonl"}
	return cfg
}

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	srv, err := New(cfg)
	require.NoError(t, err)
	srv.handler.SetQuiet(true)
	return srv
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, r))
	return w
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.TLSEnabled())

	cfg.TLSCertFile = "cert.pem"
	assert.Error(t, cfg.Validate())
	cfg.TLSKeyFile = "key.pem"
	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.TLSEnabled())

	cfg = DefaultConfig()
	cfg.RateLimitRPM = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.ClassifierCfg.Tolerance = 0.9
	assert.Error(t, cfg.Validate())

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestRoutes(t *testing.T) {
	cfg := testConfig(t)
	cfg.EnableDebug = true
	cfg.HistoryPath = filepath.Join(t.TempDir(), "history.db")
	srv := newTestServer(t, cfg)
	t.Cleanup(func() { _ = srv.closeResources() })
	h := srv.Handler()

	w := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))

	w = do(t, h, http.MethodGet, "/classify?a=2&b=2&c=3", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "isosceles", resp.Classification)
	assert.Equal(t, w.Header().Get(HeaderRequestID), resp.RequestID)

	w = do(t, h, http.MethodPost, "/classify", `{"a":1,"b":1,"c":3}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, h, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats StatsResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	assert.True(t, stats.Enabled)
	assert.Equal(t, 1, stats.Counts["isosceles"])
	assert.Equal(t, 1, stats.Counts["invalid_triangle"])

	w = do(t, h, http.MethodGet, "/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	var hist HistoryResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&hist))
	assert.Len(t, hist.Results, 2)

	w = do(t, h, http.MethodGet, "/debug?a=3&b=4&c=5", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "triangle_classifications_total")

	w = do(t, h, http.MethodGet, "/nonexistent", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodDelete, "/classify", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRoutes_DebugDisabled(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	t.Cleanup(func() { _ = srv.closeResources() })

	w := do(t, srv.Handler(), http.MethodGet, "/debug?a=3&b=4&c=5", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoutes_RequestIDPropagated(t *testing.T) {
	srv := newTestServer(t, testConfig(t))
	t.Cleanup(func() { _ = srv.closeResources() })

	req := httptest.NewRequest(http.MethodGet, "/classify?a=3&b=4&c=5", nil)
	req.Header.Set(HeaderRequestID, "client-id-1")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, "client-id-1", w.Header().Get(HeaderRequestID))
	assert.Contains(t, w.Body.String(), `"request_id":"client-id-1"`)
}

func TestRoutes_RateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimitRPM = 2
	srv := newTestServer(t, cfg)
	t.Cleanup(func() { _ = srv.closeResources() })
	h := srv.Handler()

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/classify?a=3&b=4&c=5", "").Code)
	}
	w := do(t, h, http.MethodGet, "/classify?a=3&b=4&c=5", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// health is outside the limited group
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
}

func TestServer_RunShutdown_NoGoroutineLeak(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	cfg := testConfig(t)
	cfg.RateLimitRPM = 0
	srv := newTestServer(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx)
	}()

	select {
	case <-srv.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("server did not become ready")
	}

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + srv.Addr() + "/classify?a=2&b=2&c=2")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "equilateral")

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run() didn't return after cancel")
	}
}

func TestServer_RunListenError(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = busy.Close() }()

	cfg := testConfig(t)
	cfg.Addr = busy.Addr().String()
	srv := newTestServer(t, cfg)

	err = srv.Run(context.Background())
	assert.Error(t, err)
}
