package repository

import (
	"context"

	"tasklist/internal/domain"
)

// TaskRepository exposes persistence operations for Task records. All
// reads and bulk deletes are scoped to a single owner username.
type TaskRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, task *domain.Task) error
	ListByOwner(ctx context.Context, username string) ([]domain.Task, error)
	DeleteAllByOwner(ctx context.Context, username string) (int64, error)
}
