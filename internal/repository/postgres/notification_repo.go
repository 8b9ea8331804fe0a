package postgres

import (
	"context"
	"fmt"

	"github.com/telescope-ops/telescope/internal/domain/alert"
)

var _ alert.NotificationRepo = (*NotificationRepo)(nil)

type NotificationRepo struct {
	db *DB
}

func NewNotificationRepo(db *DB) *NotificationRepo { return &NotificationRepo{db: db} }

const (
	qNotificationInsert = `
INSERT INTO notifications (project_id, kind, recipient, sent_at, payload)
VALUES ($1, $2, $3, $4, $5)
RETURNING id;
`

	qNotificationsByProject = `
SELECT id, project_id, kind, recipient, sent_at, payload
FROM notifications
WHERE project_id = $1
ORDER BY sent_at DESC
LIMIT $2;
`
)

func (r *NotificationRepo) Create(ctx context.Context, n *alert.Notification) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	eq := r.db.execQueryer(ctx)
	return eq.QueryRow(ctx, qNotificationInsert,
		n.ProjectID, string(n.Kind), n.Recipient, n.SentAt, n.Payload,
	).Scan(&n.ID)
}

func (r *NotificationRepo) ListByProject(ctx context.Context, projectID int64, limit int) ([]*alert.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qNotificationsByProject, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	out := make([]*alert.Notification, 0, limit)
	for rows.Next() {
		var n alert.Notification
		var kind string
		if err := rows.Scan(&n.ID, &n.ProjectID, &kind, &n.Recipient, &n.SentAt, &n.Payload); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Kind = alert.Kind(kind)
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
