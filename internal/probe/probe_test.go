package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/telescope-ops/telescope/internal/domain/health"
)

func TestProbe_HealthyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer sekret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "operational",
			"checks": {
				"database": {"status": "ok", "latency_ms": 14.2},
				"cache": {"status": "ok", "latency_ms": 2.1},
				"last_transaction_minutes": 3.5
			}
		}`))
	}))
	defer srv.Close()

	cl := New(Config{URL: srv.URL, Token: "sekret", Timeout: 2 * time.Second})
	res, err := cl.Probe(context.Background())
	require.NoError(t, err)
	require.True(t, res.IsUp)
	require.Equal(t, health.StatusOperational, res.Status)
	require.NotNil(t, res.StatusCode)
	require.Equal(t, 200, *res.StatusCode)
	require.NotNil(t, res.Checks)
	require.NotNil(t, res.Checks.Database)
	require.InDelta(t, 3.5, *res.Checks.LastTransactionMinutes, 0.001)
}

func TestProbe_ReportedDownDespite200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "down"}`))
	}))
	defer srv.Close()

	cl := New(Config{URL: srv.URL, Token: "sekret"})
	res, err := cl.Probe(context.Background())
	require.NoError(t, err)
	require.False(t, res.IsUp)
	require.Equal(t, health.StatusDown, res.Status)
}

func TestProbe_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status": "down"}`))
	}))
	defer srv.Close()

	cl := New(Config{URL: srv.URL, Token: "sekret"})
	res, err := cl.Probe(context.Background())
	require.NoError(t, err)
	require.False(t, res.IsUp)
	require.Equal(t, 503, *res.StatusCode)
}

func TestProbe_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>gateway error page</html>`))
	}))
	defer srv.Close()

	cl := New(Config{URL: srv.URL, Token: "sekret"})
	res, err := cl.Probe(context.Background())
	require.NoError(t, err)
	// 200 with an unreadable body still counts as reachable.
	require.True(t, res.IsUp)
	require.Equal(t, health.StatusUnknown, res.Status)
	require.Nil(t, res.Checks)
}

func TestProbe_ConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse everything from here on

	cl := New(Config{URL: srv.URL, Token: "sekret", Timeout: time.Second})
	res, err := cl.Probe(context.Background())
	require.NoError(t, err)
	require.False(t, res.IsUp)
	require.Equal(t, health.StatusUnknown, res.Status)
	require.Nil(t, res.StatusCode)
	require.NotEmpty(t, res.Err)
}

func TestProbe_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	cl := New(Config{URL: srv.URL, Token: "sekret", Timeout: 50 * time.Millisecond})
	res, err := cl.Probe(context.Background())
	require.NoError(t, err)
	require.False(t, res.IsUp)
	require.NotEmpty(t, res.Err)
}

func TestProbe_MissingToken(t *testing.T) {
	cl := New(Config{URL: "http://localhost:1"})
	res, err := cl.Probe(context.Background())
	require.ErrorIs(t, err, ErrNotConfigured)
	require.False(t, res.IsUp)
}
