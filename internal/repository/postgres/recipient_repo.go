package postgres

import (
	"context"
	"fmt"

	"github.com/telescope-ops/telescope/internal/domain/alert"
)

var _ alert.RecipientRepo = (*RecipientRepo)(nil)

// RecipientRepo reads notification_emails. The rows are managed by the
// dashboard settings CRUD; this core only ever needs the enabled subset.
type RecipientRepo struct {
	db *DB
}

func NewRecipientRepo(db *DB) *RecipientRepo { return &RecipientRepo{db: db} }

const qRecipientsEnabled = `
SELECT id, project_id, email, enabled
FROM notification_emails
WHERE project_id = $1 AND enabled = TRUE
ORDER BY id;
`

func (r *RecipientRepo) ListEnabled(ctx context.Context, projectID int64) ([]alert.Recipient, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qRecipientsEnabled, projectID)
	if err != nil {
		return nil, fmt.Errorf("query recipients: %w", err)
	}
	defer rows.Close()

	var out []alert.Recipient
	for rows.Next() {
		var rec alert.Recipient
		if err := rows.Scan(&rec.ID, &rec.ProjectID, &rec.Email, &rec.Enabled); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
