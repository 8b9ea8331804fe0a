package health_worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/telescope-ops/telescope/internal/domain/alert"
	"github.com/telescope-ops/telescope/internal/domain/health"
	"github.com/telescope-ops/telescope/internal/domain/outbox"
	"github.com/telescope-ops/telescope/internal/domain/project"
	"github.com/telescope-ops/telescope/internal/probe"
	"github.com/telescope-ops/telescope/internal/repository/postgres"
)

type ProjectSource interface {
	FetchDue(ctx context.Context, limit int) ([]*project.Project, error)
}

type LogSink interface {
	Append(ctx context.Context, e *health.LogEntry) error
}

type TrackerStore interface {
	Get(ctx context.Context, projectID int64) (*health.Tracker, error)
	Upsert(ctx context.Context, t *health.Tracker) error
}

type Enqueuer interface {
	Enqueue(ctx context.Context, key string, kind outbox.Kind, data []byte) error
}

// Handler evaluates one worker tick: the shared gateway probe plus the
// per-project transition step for every due project.
type Handler struct {
	Projects ProjectSource
	Logs     LogSink
	Trackers TrackerStore
	Outbox   Enqueuer
	Tx       postgres.Transactor
	Probe    probe.Prober
	Clock    health.Clock
	Reminder time.Duration
	Log      *zap.Logger
}

type TickStats struct {
	Due    int
	Alerts int
	Errors int
}

// Tick fetches due projects, probes the shared endpoint once, and runs
// the transition tracker per project. The probed endpoint is common
// infrastructure, so one ProbeResult serves every project this tick.
func (h *Handler) Tick(ctx context.Context, limit int) (TickStats, error) {
	var stats TickStats

	tr := otel.Tracer("health-worker")
	ctx, span := tr.Start(ctx, "worker.tick",
		trace.WithAttributes(attribute.Int("batch.limit", limit)),
	)
	defer span.End()

	due, err := h.Projects.FetchDue(ctx, limit)
	if err != nil {
		span.RecordError(err)
		return stats, fmt.Errorf("fetch due: %w", err)
	}
	stats.Due = len(due)
	span.SetAttributes(attribute.Int("batch.due", len(due)))
	if len(due) == 0 {
		return stats, nil
	}

	res, err := h.Probe.Probe(ctx)
	if err != nil {
		// Missing token: nothing can be determined; skip the tick
		// rather than recording a fake outage.
		span.RecordError(err)
		return stats, fmt.Errorf("probe: %w", err)
	}
	cls := health.Classify(res)
	now := h.Clock.Now().UTC()

	for _, p := range due {
		notified, err := h.evaluate(ctx, p, res, cls, now)
		if err != nil {
			stats.Errors++
			h.Log.Warn("evaluate project",
				zap.Int64("project_id", p.ID),
				zap.Error(err),
			)
			continue
		}
		if notified {
			stats.Alerts++
		}
	}
	span.SetAttributes(
		attribute.Int("batch.alerts", stats.Alerts),
		attribute.Int("batch.errors", stats.Errors),
	)
	return stats, nil
}

// evaluate runs the transition state machine for a single project and
// commits the log row, the optional alert, and the tracker atomically.
// Email delivery stays downstream of the commit; the tracker is never
// held hostage by the provider.
func (h *Handler) evaluate(ctx context.Context, p *project.Project, res health.ProbeResult, cls health.Classification, now time.Time) (bool, error) {
	prev := health.StatusOperational
	var lastNotifiedAt *time.Time

	t, err := h.Trackers.Get(ctx, p.ID)
	switch {
	case err == nil:
		prev = t.LastStatus
		lastNotifiedAt = t.LastNotifiedAt
	case errors.Is(err, postgres.ErrNotFound):
		// First ever tick: assume operational so a healthy start stays
		// silent and a broken start still alerts.
	default:
		return false, fmt.Errorf("get tracker: %w", err)
	}

	dec := health.Decide(prev, lastNotifiedAt, cls.Status, now, h.Reminder)

	txErr := h.Tx.WithTx(ctx, func(txCtx context.Context) error {
		entry := &health.LogEntry{
			ProjectID:  p.ID,
			CheckedAt:  now,
			IsUp:       res.IsUp,
			Status:     res.Status,
			StatusCode: res.StatusCode,
			Checks:     res.Checks,
		}
		if err := h.Logs.Append(txCtx, entry); err != nil {
			return fmt.Errorf("append log: %w", err)
		}

		tracker := &health.Tracker{
			ProjectID:  p.ID,
			LastStatus: cls.Status,
			UpdatedAt:  now,
		}
		if dec.Notify {
			a := &alert.Alert{
				ProjectID:    p.ID,
				Kind:         alert.KindFor(cls.Status),
				StatusCode:   res.StatusCode,
				CheckedAt:    now,
				Reason:       dec.Reason,
				Connectivity: !res.IsUp && res.Status == health.StatusUnknown,
			}
			data, err := json.Marshal(a)
			if err != nil {
				return fmt.Errorf("marshal alert: %w", err)
			}
			key := fmt.Sprintf("alert:%d:%d", p.ID, now.UnixNano())
			if err := h.Outbox.Enqueue(txCtx, key, outbox.KindAlert, data); err != nil {
				return fmt.Errorf("enqueue alert: %w", err)
			}
			tracker.LastNotifiedAt = &now
		}
		if err := h.Trackers.Upsert(txCtx, tracker); err != nil {
			return fmt.Errorf("upsert tracker: %w", err)
		}
		return nil
	})
	if txErr != nil {
		return false, txErr
	}

	if dec.Notify {
		h.Log.Info("alert queued",
			zap.Int64("project_id", p.ID),
			zap.String("status", string(cls.Status)),
			zap.String("reason", dec.Reason),
		)
	}
	return dec.Notify, nil
}
