package health

import "time"

// Status is the classified condition of the monitored gateway.
type Status string

const (
	StatusOperational Status = "operational"
	StatusDegraded    Status = "degraded"
	StatusDown        Status = "down"

	// StatusUnknown means the probe itself failed (timeout, DNS, refused
	// connection, non-JSON body with no usable HTTP status). Persisted as
	// NULL; equivalent to StatusDown for transition purposes.
	StatusUnknown Status = ""
)

// Known reports whether s is one of the three explicit gateway statuses.
func (s Status) Known() bool {
	return s == StatusOperational || s == StatusDegraded || s == StatusDown
}

// Effective maps StatusUnknown to StatusDown so that both failure
// representations drive the state machine identically.
func Effective(s Status) Status {
	if s == StatusUnknown {
		return StatusDown
	}
	return s
}

// ProbeResult is the normalized outcome of one health endpoint call.
// Created fresh per tick, never mutated.
type ProbeResult struct {
	IsUp       bool             `json:"isUp"`
	Status     Status           `json:"status"`
	StatusCode *int             `json:"statusCode"`
	Checks     *ComponentChecks `json:"checks"`
	Err        string           `json:"error,omitempty"`
}

// ComponentChecks carries the sub-system detail reported by the gateway.
// Every field is optional; absent fields never fail parsing.
type ComponentChecks struct {
	Database               *ComponentCheck `json:"database,omitempty"`
	Cache                  *ComponentCheck `json:"cache,omitempty"`
	Queue                  *QueueCheck     `json:"queue,omitempty"`
	Storage                *StorageCheck   `json:"storage,omitempty"`
	LastTransactionMinutes *float64        `json:"last_transaction_minutes,omitempty"`
	Acquirers              []AcquirerCheck `json:"acquirers,omitempty"`
}

type ComponentCheck struct {
	Status    string  `json:"status,omitempty"`
	LatencyMs float64 `json:"latency_ms,omitempty"`
}

type QueueCheck struct {
	Status      string `json:"status,omitempty"`
	PendingJobs int    `json:"pending_jobs,omitempty"`
	FailedJobs  int    `json:"failed_jobs,omitempty"`
}

type StorageCheck struct {
	Status   string `json:"status,omitempty"`
	Writable bool   `json:"writable,omitempty"`
}

type AcquirerCheck struct {
	Name        string  `json:"name,omitempty"`
	Status      string  `json:"status,omitempty"`
	FailureRate float64 `json:"failure_rate,omitempty"`
}

// LogEntry is one appended row of health_check_log.
type LogEntry struct {
	ID         int64            `json:"id"`
	ProjectID  int64            `json:"project_id"`
	CheckedAt  time.Time        `json:"checked_at"`
	IsUp       bool             `json:"is_up"`
	Status     Status           `json:"status"`
	StatusCode *int             `json:"status_code"`
	Checks     *ComponentChecks `json:"checks"`
}

// Tracker is the persisted last-known state per project, upserted once
// per tick. LastNotifiedAt only advances when an alert was dispatched.
type Tracker struct {
	ProjectID      int64      `json:"project_id"`
	LastStatus     Status     `json:"last_status"`
	LastNotifiedAt *time.Time `json:"last_notified_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
