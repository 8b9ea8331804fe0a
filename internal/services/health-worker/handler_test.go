package health_worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/telescope-ops/telescope/internal/domain/alert"
	"github.com/telescope-ops/telescope/internal/domain/health"
	"github.com/telescope-ops/telescope/internal/domain/outbox"
	"github.com/telescope-ops/telescope/internal/domain/project"
	"github.com/telescope-ops/telescope/internal/repository/postgres"
)

type fakeProjects struct {
	due []*project.Project
}

func (f *fakeProjects) FetchDue(_ context.Context, limit int) ([]*project.Project, error) {
	if len(f.due) > limit {
		return f.due[:limit], nil
	}
	return f.due, nil
}

type fakeLogs struct {
	entries []*health.LogEntry
}

func (f *fakeLogs) Append(_ context.Context, e *health.LogEntry) error {
	cp := *e
	f.entries = append(f.entries, &cp)
	return nil
}

// fakeTrackers mirrors the upsert rule of the real repo: a nil
// LastNotifiedAt keeps the stored timestamp.
type fakeTrackers struct {
	rows map[int64]*health.Tracker
}

func (f *fakeTrackers) Get(_ context.Context, projectID int64) (*health.Tracker, error) {
	t, ok := f.rows[projectID]
	if !ok {
		return nil, postgres.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTrackers) Upsert(_ context.Context, t *health.Tracker) error {
	cp := *t
	if prev, ok := f.rows[t.ProjectID]; ok && cp.LastNotifiedAt == nil {
		cp.LastNotifiedAt = prev.LastNotifiedAt
	}
	f.rows[t.ProjectID] = &cp
	return nil
}

type enqueued struct {
	key  string
	kind outbox.Kind
	data []byte
}

type fakeOutbox struct {
	msgs []enqueued
}

func (f *fakeOutbox) Enqueue(_ context.Context, key string, kind outbox.Kind, data []byte) error {
	f.msgs = append(f.msgs, enqueued{key: key, kind: kind, data: data})
	return nil
}

type passTx struct{}

func (passTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeProbe struct {
	res health.ProbeResult
	err error
}

func (f *fakeProbe) Probe(context.Context) (health.ProbeResult, error) { return f.res, f.err }

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestHandler(p *fakeProbe, clock *fakeClock) (*Handler, *fakeLogs, *fakeTrackers, *fakeOutbox) {
	logs := &fakeLogs{}
	trackers := &fakeTrackers{rows: map[int64]*health.Tracker{}}
	ob := &fakeOutbox{}
	h := &Handler{
		Projects: &fakeProjects{due: []*project.Project{{ID: 1, Name: "gateway", Active: true}}},
		Logs:     logs,
		Trackers: trackers,
		Outbox:   ob,
		Tx:       passTx{},
		Probe:    p,
		Clock:    clock,
		Reminder: time.Hour,
		Log:      zap.NewNop(),
	}
	return h, logs, trackers, ob
}

func upResult() health.ProbeResult {
	code := 200
	return health.ProbeResult{IsUp: true, Status: health.StatusOperational, StatusCode: &code}
}

func downResult() health.ProbeResult {
	code := 503
	return health.ProbeResult{IsUp: false, Status: health.StatusDown, StatusCode: &code}
}

func TestTick_HealthyFirstRunStaysSilent(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	p := &fakeProbe{res: upResult()}
	h, logs, trackers, ob := newTestHandler(p, clock)

	stats, err := h.Tick(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Due)
	require.Zero(t, stats.Alerts)
	require.Empty(t, ob.msgs)
	require.Len(t, logs.entries, 1)
	require.True(t, logs.entries[0].IsUp)

	tr := trackers.rows[1]
	require.NotNil(t, tr)
	require.Equal(t, health.StatusOperational, tr.LastStatus)
	require.Nil(t, tr.LastNotifiedAt)
}

func TestTick_BrokenFirstRunAlerts(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	p := &fakeProbe{res: downResult()}
	h, _, trackers, ob := newTestHandler(p, clock)

	stats, err := h.Tick(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Alerts)
	require.Len(t, ob.msgs, 1)
	require.Equal(t, outbox.KindAlert, ob.msgs[0].kind)

	var a alert.Alert
	require.NoError(t, json.Unmarshal(ob.msgs[0].data, &a))
	require.Equal(t, alert.KindDown, a.Kind)
	require.Equal(t, int64(1), a.ProjectID)
	require.False(t, a.Connectivity)

	tr := trackers.rows[1]
	require.Equal(t, health.StatusDown, tr.LastStatus)
	require.NotNil(t, tr.LastNotifiedAt)
}

func TestTick_OneAlertPerOutage(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	p := &fakeProbe{res: upResult()}
	h, logs, _, ob := newTestHandler(p, clock)

	sequence := []health.ProbeResult{
		upResult(), upResult(), downResult(), downResult(), downResult(),
	}
	alerts := 0
	for _, res := range sequence {
		p.res = res
		stats, err := h.Tick(context.Background(), 10)
		require.NoError(t, err)
		alerts += stats.Alerts
		clock.now = clock.now.Add(2 * time.Minute)
	}

	require.Equal(t, 1, alerts)
	require.Len(t, ob.msgs, 1)
	require.Len(t, logs.entries, 5)
}

func TestTick_ReminderAfterInterval(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	p := &fakeProbe{res: downResult()}
	h, _, _, ob := newTestHandler(p, clock)

	_, err := h.Tick(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, ob.msgs, 1)

	// Still down 30 minutes later: quiet.
	clock.now = clock.now.Add(30 * time.Minute)
	stats, err := h.Tick(context.Background(), 10)
	require.NoError(t, err)
	require.Zero(t, stats.Alerts)

	// Past the reminder interval: alert again.
	clock.now = clock.now.Add(31 * time.Minute)
	stats, err = h.Tick(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Alerts)
	require.Len(t, ob.msgs, 2)
}

func TestTick_RecoveryNotifies(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	p := &fakeProbe{res: downResult()}
	h, _, trackers, ob := newTestHandler(p, clock)

	_, err := h.Tick(context.Background(), 10)
	require.NoError(t, err)

	clock.now = clock.now.Add(2 * time.Minute)
	p.res = upResult()
	stats, err := h.Tick(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Alerts)
	require.Len(t, ob.msgs, 2)

	var a alert.Alert
	require.NoError(t, json.Unmarshal(ob.msgs[1].data, &a))
	require.Equal(t, alert.KindOperational, a.Kind)
	require.Equal(t, health.StatusOperational, trackers.rows[1].LastStatus)
}

func TestTick_ProbeFailureIsConnectivityAlert(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	p := &fakeProbe{res: health.ProbeResult{IsUp: false, Err: "dial tcp: i/o timeout"}}
	h, logs, _, ob := newTestHandler(p, clock)

	stats, err := h.Tick(context.Background(), 10)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Alerts)

	var a alert.Alert
	require.NoError(t, json.Unmarshal(ob.msgs[0].data, &a))
	require.Equal(t, alert.KindDown, a.Kind)
	require.True(t, a.Connectivity)

	// The log row keeps the raw unknown status, not the effective one.
	require.Equal(t, health.StatusUnknown, logs.entries[0].Status)
	require.Nil(t, logs.entries[0].StatusCode)
}

func TestTick_UnknownThenDownDoesNotReAlert(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	p := &fakeProbe{res: health.ProbeResult{IsUp: false, Err: "connection refused"}}
	h, _, _, ob := newTestHandler(p, clock)

	_, err := h.Tick(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, ob.msgs, 1)

	clock.now = clock.now.Add(2 * time.Minute)
	p.res = downResult()
	stats, err := h.Tick(context.Background(), 10)
	require.NoError(t, err)
	require.Zero(t, stats.Alerts)
	require.Len(t, ob.msgs, 1)
}

func TestTick_LastNotifiedSurvivesSilentTicks(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	p := &fakeProbe{res: downResult()}
	h, _, trackers, _ := newTestHandler(p, clock)

	_, err := h.Tick(context.Background(), 10)
	require.NoError(t, err)
	first := *trackers.rows[1].LastNotifiedAt

	clock.now = clock.now.Add(10 * time.Minute)
	_, err = h.Tick(context.Background(), 10)
	require.NoError(t, err)

	// The quiet tick upserted the tracker but kept the notification stamp.
	require.Equal(t, first, *trackers.rows[1].LastNotifiedAt)
}

func TestTick_MissingTokenSkipsTick(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	p := &fakeProbe{err: context.DeadlineExceeded}
	h, logs, _, ob := newTestHandler(p, clock)

	_, err := h.Tick(context.Background(), 10)
	require.Error(t, err)
	require.Empty(t, logs.entries)
	require.Empty(t, ob.msgs)
}

func TestTick_NoDueProjects(t *testing.T) {
	clock := &fakeClock{now: time.Now().UTC()}
	p := &fakeProbe{res: upResult()}
	h, logs, _, _ := newTestHandler(p, clock)
	h.Projects = &fakeProjects{}

	stats, err := h.Tick(context.Background(), 10)
	require.NoError(t, err)
	require.Zero(t, stats.Due)
	require.Empty(t, logs.entries)
}
