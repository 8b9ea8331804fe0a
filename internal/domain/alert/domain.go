package alert

import (
	"time"

	"github.com/telescope-ops/telescope/internal/domain/health"
)

// Kind selects the subject/body template of an alert email.
type Kind string

const (
	KindDown        Kind = "DOWN"
	KindDegraded    Kind = "DEGRADED"
	KindOperational Kind = "OPERATIONAL"
	KindTest        Kind = "TEST"
)

// KindFor maps a classified status to the alert kind announcing it.
func KindFor(s health.Status) Kind {
	switch health.Effective(s) {
	case health.StatusDown:
		return KindDown
	case health.StatusDegraded:
		return KindDegraded
	default:
		return KindOperational
	}
}

// Alert is one notifiable event produced by the transition tracker (or by
// a manual test send).
type Alert struct {
	ProjectID  int64     `json:"project_id"`
	Kind       Kind      `json:"kind"`
	StatusCode *int      `json:"status_code"`
	CheckedAt  time.Time `json:"checked_at"`
	Reason     string    `json:"reason"`

	// Connectivity marks the probe-failure flavour of DOWN: the endpoint
	// never answered, as opposed to the gateway reporting itself down.
	// Same transition semantics, different message text.
	Connectivity bool `json:"connectivity_failure,omitempty"`

	// TestRecipient overrides all recipient resolution for manual test
	// sends; empty for real alerts.
	TestRecipient string `json:"test_recipient,omitempty"`
}

// Recipient is one configured notification address. CRUD-managed outside
// this core; only the enabled subset is ever read here.
type Recipient struct {
	ID        int64  `json:"id"`
	ProjectID int64  `json:"project_id"`
	Email     string `json:"email"`
	Enabled   bool   `json:"enabled"`
}

// Notification records one successfully dispatched email.
type Notification struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	Kind      Kind      `json:"kind"`
	Recipient string    `json:"recipient"`
	SentAt    time.Time `json:"sent_at"`
	Payload   string    `json:"payload"`
}

// Outcome reports what the notifier did with an alert. Dispatch is best
// effort: every failure mode is a value here, never a crash.
type Outcome struct {
	Sent   bool   `json:"sent"`
	Reason string `json:"reason,omitempty"`
}

const (
	ReasonNoRecipients  = "no_recipients"
	ReasonNotConfigured = "not_configured"
	ReasonProviderError = "provider_error"
)
