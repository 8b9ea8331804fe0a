package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/telescope-ops/telescope/internal/domain/health"
)

var _ health.TrackerRepo = (*TrackerRepo)(nil)

// TrackerRepo holds the single health_status_tracker row per project.
type TrackerRepo struct {
	db *DB
}

func NewTrackerRepo(db *DB) *TrackerRepo { return &TrackerRepo{db: db} }

const (
	qTrackerGet = `
SELECT project_id, last_status, last_notified_at, updated_at
FROM health_status_tracker
WHERE project_id = $1;
`

	// A NULL $3 keeps the stored last_notified_at: it only advances when
	// an alert was actually dispatched.
	qTrackerUpsert = `
INSERT INTO health_status_tracker (project_id, last_status, last_notified_at, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (project_id) DO UPDATE
SET last_status      = EXCLUDED.last_status,
    last_notified_at = COALESCE(EXCLUDED.last_notified_at, health_status_tracker.last_notified_at),
    updated_at       = EXCLUDED.updated_at;
`
)

func (r *TrackerRepo) Get(ctx context.Context, projectID int64) (*health.Tracker, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var t health.Tracker
	err := r.db.Pool.QueryRow(ctx, qTrackerGet, projectID).Scan(
		&t.ProjectID, &t.LastStatus, &t.LastNotifiedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan tracker: %w", err)
	}
	return &t, nil
}

func (r *TrackerRepo) Upsert(ctx context.Context, t *health.Tracker) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	eq := r.db.execQueryer(ctx)
	_, err := eq.Exec(ctx, qTrackerUpsert,
		t.ProjectID, string(t.LastStatus), t.LastNotifiedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert tracker: %w", err)
	}
	return nil
}
