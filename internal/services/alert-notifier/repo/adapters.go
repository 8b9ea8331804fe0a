package repo

import (
	"context"

	"github.com/telescope-ops/telescope/internal/domain/alert"
)

type Recipients struct{ R alert.RecipientRepo }
type Notifications struct{ R alert.NotificationRepo }

func (a Recipients) ListEnabled(ctx context.Context, projectID int64) ([]alert.Recipient, error) {
	return a.R.ListEnabled(ctx, projectID)
}

func (a Notifications) Create(ctx context.Context, n *alert.Notification) error {
	return a.R.Create(ctx, n)
}
