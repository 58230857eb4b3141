package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/redikv/internal/core/role"
	"github.com/yndnr/redikv/internal/telemetry/metric"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestHealthz_Primary(t *testing.T) {
	state := role.NewState(role.Primary{ReplicationID: "8371b4fb1155b71f4a04d3e1bc3e18c4a990aeeb"})
	h := NewRouter(&RouterConfig{State: state, Logger: quiet})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var got Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "master", got.Role)
	assert.Equal(t, "8371b4fb1155b71f4a04d3e1bc3e18c4a990aeeb", got.ReplicationID)
	assert.True(t, got.Synced)
}

func TestHealthz_Replica(t *testing.T) {
	state := role.NewState(role.Replica{PrimaryHost: "localhost", PrimaryPort: 6379, ListeningPort: 6380})
	h := NewRouter(&RouterConfig{State: state, Logger: quiet})

	get := func() Health {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var got Health
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		return got
	}

	got := get()
	assert.Equal(t, "slave", got.Role)
	assert.Equal(t, "localhost:6379", got.PrimaryAddr)
	assert.False(t, got.Synced)

	state.SetKnownReplicationID("abc")
	got = get()
	assert.True(t, got.Synced)
	assert.Equal(t, "abc", got.KnownReplID)
}

func TestRequestID_Propagated(t *testing.T) {
	h := NewRouter(&RouterConfig{State: role.NewState(role.Primary{}), Logger: quiet})

	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))
	assert.Contains(t, rec.Body.String(), `"go_version"`)
}

func TestMetrics_Route(t *testing.T) {
	metrics := metric.NewRegistry()
	metrics.ConnOpened()
	h := NewRouter(&RouterConfig{State: role.NewState(role.Primary{}), Metrics: metrics, Logger: quiet})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "redikv_connections_active 1")
}

func TestMetrics_DisabledWithoutRegistry(t *testing.T) {
	h := NewRouter(&RouterConfig{State: role.NewState(role.Primary{}), Logger: quiet})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecover(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}), RequestID(), Recover(quiet))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "internal server error"))
}

func TestServer_ServeAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := New(ln.Addr().String(), NewRouter(&RouterConfig{State: role.NewState(role.Primary{}), Logger: quiet}), quiet)
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ln) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + ln.Addr().String() + "/healthz")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
}
