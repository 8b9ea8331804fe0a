package alert_notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/telescope-ops/telescope/internal/domain/alert"
)

type fakeRecipients struct {
	rows []alert.Recipient
	err  error
}

func (f *fakeRecipients) ListEnabled(context.Context, int64) ([]alert.Recipient, error) {
	return f.rows, f.err
}

type fakeStore struct {
	rows []*alert.Notification
	err  error
}

func (f *fakeStore) Create(_ context.Context, n *alert.Notification) error {
	if f.err != nil {
		return f.err
	}
	cp := *n
	f.rows = append(f.rows, &cp)
	return nil
}

type sentMail struct {
	to      []string
	subject string
	html    string
}

type fakeSender struct {
	sent []sentMail
	err  error
}

func (f *fakeSender) Send(_ context.Context, to []string, subject, html string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, html: html})
	return nil
}

type stubClock struct{ now time.Time }

func (c stubClock) Now() time.Time { return c.now }

func newTestNotifier(rec *fakeRecipients, out *fakeSender) (*Handler, *fakeStore) {
	store := &fakeStore{}
	h := &Handler{
		Recipients: rec,
		Store:      store,
		Out:        out,
		Clock:      stubClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
		Fallback:   "",
		Log:        zap.NewNop(),
	}
	return h, store
}

func downAlert() *alert.Alert {
	code := 503
	return &alert.Alert{
		ProjectID:  1,
		Kind:       alert.KindDown,
		StatusCode: &code,
		CheckedAt:  time.Date(2026, 3, 1, 8, 58, 0, 0, time.UTC),
		Reason:     "status_change: operational -> down",
	}
}

func TestHandleAlert_DeliversAndRecords(t *testing.T) {
	rec := &fakeRecipients{rows: []alert.Recipient{
		{ID: 1, ProjectID: 1, Email: "ops@example.com", Enabled: true},
		{ID: 2, ProjectID: 1, Email: "oncall@example.com", Enabled: true},
	}}
	out := &fakeSender{}
	h, store := newTestNotifier(rec, out)

	outc, err := h.HandleAlert(context.Background(), downAlert())
	require.NoError(t, err)
	require.True(t, outc.Sent)

	require.Len(t, out.sent, 1)
	require.Equal(t, []string{"ops@example.com", "oncall@example.com"}, out.sent[0].to)
	require.Contains(t, out.sent[0].subject, "DOWN")
	require.Contains(t, out.sent[0].subject, "503")

	require.Len(t, store.rows, 1)
	require.Equal(t, alert.KindDown, store.rows[0].Kind)
	require.Equal(t, "ops@example.com, oncall@example.com", store.rows[0].Recipient)
}

func TestHandleAlert_NoRecipients(t *testing.T) {
	out := &fakeSender{}
	h, store := newTestNotifier(&fakeRecipients{}, out)

	outc, err := h.HandleAlert(context.Background(), downAlert())
	require.NoError(t, err)
	require.False(t, outc.Sent)
	require.Equal(t, alert.ReasonNoRecipients, outc.Reason)
	require.Empty(t, out.sent)
	require.Empty(t, store.rows)
}

func TestHandleAlert_FallbackRecipient(t *testing.T) {
	out := &fakeSender{}
	h, _ := newTestNotifier(&fakeRecipients{}, out)
	h.Fallback = "fallback@example.com"

	outc, err := h.HandleAlert(context.Background(), downAlert())
	require.NoError(t, err)
	require.True(t, outc.Sent)
	require.Equal(t, []string{"fallback@example.com"}, out.sent[0].to)
}

func TestHandleAlert_TestRecipientOverridesEverything(t *testing.T) {
	rec := &fakeRecipients{rows: []alert.Recipient{
		{ID: 1, ProjectID: 1, Email: "ops@example.com", Enabled: true},
	}}
	out := &fakeSender{}
	h, _ := newTestNotifier(rec, out)
	h.Fallback = "fallback@example.com"

	a := &alert.Alert{
		ProjectID:     1,
		Kind:          alert.KindTest,
		CheckedAt:     time.Now().UTC(),
		TestRecipient: "me@example.com",
	}
	outc, err := h.HandleAlert(context.Background(), a)
	require.NoError(t, err)
	require.True(t, outc.Sent)
	require.Equal(t, []string{"me@example.com"}, out.sent[0].to)
	require.Contains(t, out.sent[0].subject, "test")
}

func TestHandleAlert_ProviderFailureIsSoft(t *testing.T) {
	rec := &fakeRecipients{rows: []alert.Recipient{{Email: "ops@example.com"}}}
	out := &fakeSender{err: errors.New("provider status 500")}
	h, store := newTestNotifier(rec, out)

	outc, err := h.HandleAlert(context.Background(), downAlert())
	require.NoError(t, err)
	require.False(t, outc.Sent)
	require.Equal(t, alert.ReasonProviderError, outc.Reason)
	require.Empty(t, store.rows)
}

func TestHandleAlert_NotConfiguredIsSoft(t *testing.T) {
	rec := &fakeRecipients{rows: []alert.Recipient{{Email: "ops@example.com"}}}
	out := &fakeSender{err: ErrNotConfigured}
	h, _ := newTestNotifier(rec, out)

	outc, err := h.HandleAlert(context.Background(), downAlert())
	require.NoError(t, err)
	require.False(t, outc.Sent)
	require.Equal(t, alert.ReasonNotConfigured, outc.Reason)
}

func TestHandleAlert_RecipientLookupErrorPropagates(t *testing.T) {
	rec := &fakeRecipients{err: errors.New("db down")}
	out := &fakeSender{}
	h, _ := newTestNotifier(rec, out)

	_, err := h.HandleAlert(context.Background(), downAlert())
	require.Error(t, err)
	require.Empty(t, out.sent)
}

func TestHandleAlert_AuditFailureDoesNotFailDelivery(t *testing.T) {
	rec := &fakeRecipients{rows: []alert.Recipient{{Email: "ops@example.com"}}}
	out := &fakeSender{}
	h, store := newTestNotifier(rec, out)
	store.err = errors.New("insert failed")

	outc, err := h.HandleAlert(context.Background(), downAlert())
	require.NoError(t, err)
	require.True(t, outc.Sent)
}

func TestCompose_Variants(t *testing.T) {
	code := 503
	at := time.Date(2026, 3, 1, 8, 58, 0, 0, time.UTC)

	subj, html := Compose(&alert.Alert{Kind: alert.KindDown, StatusCode: &code, CheckedAt: at})
	require.Contains(t, subj, "DOWN")
	require.Contains(t, subj, "503")
	require.Contains(t, html, "2026-03-01T08:58:00Z")

	subj, html = Compose(&alert.Alert{Kind: alert.KindDown, Connectivity: true, CheckedAt: at})
	require.Contains(t, subj, "unreachable")
	require.Contains(t, html, "did not answer")

	subj, _ = Compose(&alert.Alert{Kind: alert.KindDegraded, StatusCode: &code, CheckedAt: at})
	require.Contains(t, subj, "degraded")

	subj, html = Compose(&alert.Alert{Kind: alert.KindOperational, CheckedAt: at})
	require.Contains(t, subj, "back to normal")
	require.Contains(t, html, "recovered")
}
