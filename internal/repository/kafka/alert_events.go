package kafka

import (
	"context"
	"time"

	"github.com/telescope-ops/telescope/internal/domain/alert"
)

// AlertEvent is the wire form of an alert on the alerts topic.
type AlertEvent struct {
	ProjectID     int64     `json:"project_id"`
	Kind          string    `json:"kind"`
	StatusCode    *int      `json:"status_code"`
	CheckedAt     time.Time `json:"checked_at"`
	Reason        string    `json:"reason"`
	Connectivity  bool      `json:"connectivity_failure,omitempty"`
	TestRecipient string    `json:"test_recipient,omitempty"`
}

func (e *AlertEvent) ToDomain() *alert.Alert {
	return &alert.Alert{
		ProjectID:     e.ProjectID,
		Kind:          alert.Kind(e.Kind),
		StatusCode:    e.StatusCode,
		CheckedAt:     e.CheckedAt,
		Reason:        e.Reason,
		Connectivity:  e.Connectivity,
		TestRecipient: e.TestRecipient,
	}
}

// AlertEventsKafka publishes alerts for the notifier to consume.
type AlertEventsKafka struct {
	p *Producer
}

func NewAlertEventsKafka(p *Producer) *AlertEventsKafka { return &AlertEventsKafka{p: p} }

var _ alert.Events = (*AlertEventsKafka)(nil)

func (e *AlertEventsKafka) PublishAlert(ctx context.Context, a *alert.Alert) error {
	return e.p.PublishJSON(ctx, KeyFromInt64(a.ProjectID), &AlertEvent{
		ProjectID:     a.ProjectID,
		Kind:          string(a.Kind),
		StatusCode:    a.StatusCode,
		CheckedAt:     a.CheckedAt,
		Reason:        a.Reason,
		Connectivity:  a.Connectivity,
		TestRecipient: a.TestRecipient,
	})
}
