package alert

import "context"

type RecipientRepo interface {
	ListEnabled(ctx context.Context, projectID int64) ([]Recipient, error)
}

type NotificationRepo interface {
	Create(ctx context.Context, n *Notification) error
	ListByProject(ctx context.Context, projectID int64, limit int) ([]*Notification, error)
}

// EmailSender dispatches one message via the transactional provider.
type EmailSender interface {
	Send(ctx context.Context, to []string, subject, html string) error
}

// Events publishes alerts toward the notifier.
type Events interface {
	PublishAlert(ctx context.Context, a *Alert) error
}
