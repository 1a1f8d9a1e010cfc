package tasks

import (
	"context"
	"time"
)

// Repository persists tasks. Every lookup and mutation is scoped to an owner:
// a task that exists under another owner reports db.ErrNotFound exactly like
// one that does not exist at all.
type Repository interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, ownerID, id string) (*Task, error)
	Update(ctx context.Context, ownerID, id string, c Changes, updatedAt time.Time) (*Task, error)
	Delete(ctx context.Context, ownerID, id string) error
	// List returns one window of the matching tasks ordered by creation time,
	// then id, so consecutive pages never overlap.
	List(ctx context.Context, f Filter, offset, limit int) ([]Task, error)
	Count(ctx context.Context, f Filter) (int64, error)
}
