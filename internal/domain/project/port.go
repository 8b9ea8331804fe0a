package project

import "context"

type Repo interface {
	GetByID(ctx context.Context, id int64) (*Project, error)

	// FetchDue returns active projects whose next_run has passed and
	// advances their next_run by one interval, so overlapping workers
	// never evaluate the same project twice in a slot.
	FetchDue(ctx context.Context, limit int) ([]*Project, error)
}
