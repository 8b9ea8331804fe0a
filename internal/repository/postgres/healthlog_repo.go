package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/telescope-ops/telescope/internal/domain/health"
)

var _ health.LogRepo = (*HealthLogRepo)(nil)

// HealthLogRepo is the append-only health_check_log store. Rows are never
// updated or deleted here; retention is a separate sweep.
type HealthLogRepo struct {
	db *DB
}

func NewHealthLogRepo(db *DB) *HealthLogRepo { return &HealthLogRepo{db: db} }

const (
	qLogAppend = `
INSERT INTO health_check_log (project_id, checked_at, is_up, status, status_code, checks)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id;
`

	qLogWindow = `
SELECT id, project_id, checked_at, is_up, status, status_code, checks
FROM health_check_log
WHERE project_id = $1 AND checked_at >= $2 AND checked_at < $3
ORDER BY checked_at;
`
)

func (r *HealthLogRepo) Append(ctx context.Context, e *health.LogEntry) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var status *string
	if e.Status != health.StatusUnknown {
		s := string(e.Status)
		status = &s
	}
	var checks []byte
	if e.Checks != nil {
		b, err := json.Marshal(e.Checks)
		if err != nil {
			return fmt.Errorf("marshal checks: %w", err)
		}
		checks = b
	}

	eq := r.db.execQueryer(ctx)
	return eq.QueryRow(ctx, qLogAppend,
		e.ProjectID, e.CheckedAt, e.IsUp, status, e.StatusCode, checks,
	).Scan(&e.ID)
}

func (r *HealthLogRepo) LoadWindow(ctx context.Context, projectID int64, from, to time.Time) ([]*health.LogEntry, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qLogWindow, projectID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query health log: %w", err)
	}
	defer rows.Close()

	var out []*health.LogEntry
	for rows.Next() {
		var (
			e      health.LogEntry
			status *string
			checks []byte
		)
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.CheckedAt, &e.IsUp, &status, &e.StatusCode, &checks); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		if status != nil {
			e.Status = health.Status(*status)
		}
		if len(checks) > 0 {
			var c health.ComponentChecks
			if err := json.Unmarshal(checks, &c); err == nil {
				e.Checks = &c
			}
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
