package status_api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/telescope-ops/telescope/internal/domain/health"
	"github.com/telescope-ops/telescope/internal/history"
	"github.com/telescope-ops/telescope/internal/probe"
)

type stubProbe struct {
	res health.ProbeResult
	err error
}

func (s *stubProbe) Probe(context.Context) (health.ProbeResult, error) { return s.res, s.err }

type stubClock struct{ now time.Time }

func (c *stubClock) Now() time.Time { return c.now }

func TestNormalizeInterval(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want time.Duration
	}{
		{0, 120 * time.Second},
		{-5 * time.Second, 120 * time.Second},
		{30 * time.Second, 30 * time.Second},
		{45 * time.Second, 30 * time.Second},
		{50 * time.Second, 60 * time.Second},
		{2 * time.Minute, 120 * time.Second},
		{4 * time.Minute, 180 * time.Second},
		{15 * time.Minute, 600 * time.Second},
		{time.Hour, 600 * time.Second},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, NormalizeInterval(tc.in), "in=%v", tc.in)
	}
}

func TestPoller_CheckNowRecordsObservation(t *testing.T) {
	code := 200
	p := &stubProbe{res: health.ProbeResult{IsUp: true, Status: health.StatusOperational, StatusCode: &code}}
	now := time.Date(2026, 3, 1, 10, 4, 0, 0, time.UTC)
	clock := &stubClock{now: now}
	w := history.NewWindow(2*time.Minute, 30).WithClock(func() time.Time { return clock.now })

	poller := NewPoller(p, w, clock, time.Minute, zap.NewNop())
	require.Nil(t, poller.Last())

	obs := poller.CheckNow(context.Background())
	require.Equal(t, health.StatusOperational, obs.Classification.Status)
	require.Equal(t, 100, obs.Classification.Score)
	require.Equal(t, obs, poller.Last())

	snap := w.Snapshot()
	require.Len(t, snap, 1)
	require.True(t, snap[0].IsUp)
	require.Equal(t, now, snap[0].Timestamp)
}

func TestPoller_FailedProbeStillRecorded(t *testing.T) {
	p := &stubProbe{res: health.ProbeResult{IsUp: false, Err: "connection refused"}}
	clock := &stubClock{now: time.Date(2026, 3, 1, 10, 4, 0, 0, time.UTC)}
	w := history.NewWindow(2*time.Minute, 30).WithClock(func() time.Time { return clock.now })

	poller := NewPoller(p, w, clock, time.Minute, zap.NewNop())
	obs := poller.CheckNow(context.Background())

	require.Equal(t, health.StatusDown, obs.Classification.Status)
	require.Equal(t, 0, obs.Classification.Score)
	require.False(t, obs.NotConfigured)

	snap := w.Snapshot()
	require.Len(t, snap, 1)
	require.False(t, snap[0].IsUp)
}

func TestPoller_NotConfiguredSkipsWindow(t *testing.T) {
	p := &stubProbe{
		res: health.ProbeResult{Err: probe.ErrNotConfigured.Error()},
		err: probe.ErrNotConfigured,
	}
	clock := &stubClock{now: time.Date(2026, 3, 1, 10, 4, 0, 0, time.UTC)}
	w := history.NewWindow(2*time.Minute, 30).WithClock(func() time.Time { return clock.now })

	poller := NewPoller(p, w, clock, time.Minute, zap.NewNop())
	obs := poller.CheckNow(context.Background())

	require.True(t, obs.NotConfigured)
	require.Empty(t, w.Snapshot())
}

func TestPoller_WakeCoalesces(t *testing.T) {
	p := &stubProbe{res: health.ProbeResult{IsUp: true, Status: health.StatusOperational}}
	clock := &stubClock{now: time.Now().UTC()}
	w := history.NewWindow(2*time.Minute, 30)

	poller := NewPoller(p, w, clock, time.Minute, zap.NewNop())

	poller.Wake()
	poller.Wake()
	poller.Wake()
	require.Len(t, poller.wake, 1)
}
