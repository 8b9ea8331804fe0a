package repo

import (
	"context"

	"github.com/telescope-ops/telescope/internal/domain/health"
	"github.com/telescope-ops/telescope/internal/domain/outbox"
	"github.com/telescope-ops/telescope/internal/domain/project"
)

type Projects struct{ R project.Repo }
type Logs struct{ R health.LogRepo }
type Trackers struct{ R health.TrackerRepo }
type AlertOutbox struct{ R outbox.Repository }

func (a Projects) FetchDue(ctx context.Context, limit int) ([]*project.Project, error) {
	return a.R.FetchDue(ctx, limit)
}

func (a Logs) Append(ctx context.Context, e *health.LogEntry) error {
	return a.R.Append(ctx, e)
}

func (a Trackers) Get(ctx context.Context, projectID int64) (*health.Tracker, error) {
	return a.R.Get(ctx, projectID)
}

func (a Trackers) Upsert(ctx context.Context, t *health.Tracker) error {
	return a.R.Upsert(ctx, t)
}

func (a AlertOutbox) Enqueue(ctx context.Context, key string, kind outbox.Kind, data []byte) error {
	return a.R.Enqueue(ctx, key, kind, data)
}
