package alert_notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/telescope-ops/telescope/internal/domain/alert"
	"github.com/telescope-ops/telescope/internal/domain/health"
)

type RecipientReader interface {
	ListEnabled(ctx context.Context, projectID int64) ([]alert.Recipient, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *alert.Notification) error
}

// Handler turns a consumed alert into at most one email. Delivery
// problems become an Outcome, never an error, so the broker does not
// redeliver a message whose send already failed for a durable reason.
type Handler struct {
	Recipients RecipientReader
	Store      NotificationStore
	Out        alert.EmailSender
	Clock      health.Clock
	Fallback   string
	Log        *zap.Logger
}

func (h *Handler) HandleAlert(ctx context.Context, a *alert.Alert) (alert.Outcome, error) {
	log := h.Log.With(
		zap.Int64("project_id", a.ProjectID),
		zap.String("kind", string(a.Kind)),
	)

	to, err := h.resolve(ctx, a)
	if err != nil {
		return alert.Outcome{}, err
	}
	if len(to) == 0 {
		log.Info("no recipients configured, skipping alert")
		return alert.Outcome{Reason: alert.ReasonNoRecipients}, nil
	}

	subject, html := Compose(a)
	if err := h.Out.Send(ctx, to, subject, html); err != nil {
		if errors.Is(err, ErrNotConfigured) {
			log.Warn("email provider not configured, skipping alert")
			return alert.Outcome{Reason: alert.ReasonNotConfigured}, nil
		}
		log.Warn("email send failed, dropping alert", zap.Error(err))
		return alert.Outcome{Reason: alert.ReasonProviderError}, nil
	}

	// Audit row is best effort: a failed insert must not resurface an
	// already delivered email through redelivery.
	n := &alert.Notification{
		ProjectID: a.ProjectID,
		Kind:      a.Kind,
		Recipient: strings.Join(to, ", "),
		SentAt:    h.Clock.Now(),
		Payload:   subject,
	}
	if err := h.Store.Create(ctx, n); err != nil {
		log.Warn("record notification", zap.Error(err))
	}

	log.Info("alert delivered", zap.Int("recipients", len(to)))
	return alert.Outcome{Sent: true}, nil
}

// resolve picks recipients in priority order: an explicit test address,
// then the project's enabled subscription rows, then the static
// fallback from config.
func (h *Handler) resolve(ctx context.Context, a *alert.Alert) ([]string, error) {
	if a.TestRecipient != "" {
		return []string{a.TestRecipient}, nil
	}

	rows, err := h.Recipients.ListEnabled(ctx, a.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	to := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Email != "" {
			to = append(to, r.Email)
		}
	}
	if len(to) == 0 && h.Fallback != "" {
		to = append(to, h.Fallback)
	}
	return to, nil
}
