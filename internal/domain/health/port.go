package health

import (
	"context"
	"time"
)

type LogRepo interface {
	Append(ctx context.Context, e *LogEntry) error
	LoadWindow(ctx context.Context, projectID int64, from, to time.Time) ([]*LogEntry, error)
}

type TrackerRepo interface {
	// Get returns ErrNotFound from the storage layer when no tracker row
	// exists yet for the project.
	Get(ctx context.Context, projectID int64) (*Tracker, error)

	// Upsert writes last_status and updated_at unconditionally; a nil
	// LastNotifiedAt leaves the stored last_notified_at untouched.
	Upsert(ctx context.Context, t *Tracker) error
}

type Clock interface {
	Now() time.Time
}
