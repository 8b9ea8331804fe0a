package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/telescope-ops/telescope/internal/domain/project"
)

var _ project.Repo = (*ProjectRepo)(nil)

type ProjectRepo struct {
	db *DB
}

func NewProjectRepo(db *DB) *ProjectRepo { return &ProjectRepo{db: db} }

const (
	qProjectByID = `
SELECT id, name, interval_sec, active, next_run, created_at, updated_at
FROM projects
WHERE id = $1;
`

	qProjectsDue = `
SELECT id, name, interval_sec, active, next_run, created_at, updated_at
FROM projects
WHERE active = TRUE AND next_run <= NOW()
ORDER BY next_run
FOR UPDATE SKIP LOCKED
LIMIT $1;
`

	qProjectsBump = `
UPDATE projects
SET next_run = NOW() + (interval_sec * INTERVAL '1 second'),
    updated_at = NOW()
WHERE id = ANY($1);
`
)

func scanProject(row pgx.Row, p *project.Project) error {
	var intervalSec int
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&intervalSec,
		&p.Active,
		&p.NextRun,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("scan project: %w", err)
	}
	p.Interval = time.Duration(intervalSec) * time.Second
	return nil
}

func (r *ProjectRepo) GetByID(ctx context.Context, id int64) (*project.Project, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var p project.Project
	if err := scanProject(r.db.Pool.QueryRow(ctx, qProjectByID, id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// FetchDue selects due projects and advances their next_run in one
// transaction, so concurrent workers split the set instead of sharing it.
func (r *ProjectRepo) FetchDue(ctx context.Context, limit int) ([]*project.Project, error) {
	if limit <= 0 {
		limit = 100
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, qProjectsDue, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch due: %w", err)
	}
	defer rows.Close()

	var (
		out []*project.Project
		ids []int64
	)
	for rows.Next() {
		var p project.Project
		if err := scanProject(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, &p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	if _, err := tx.Exec(ctx, qProjectsBump, ids); err != nil {
		return nil, fmt.Errorf("bump next_run: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}
