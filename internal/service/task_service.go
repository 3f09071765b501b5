package service

import (
	"context"

	"github.com/google/uuid"

	"tasklist/internal/domain"
	"tasklist/internal/repository"
)

// TaskService coordinates owner-scoped task operations backed by the
// repository. Every operation takes the owner username from the verified
// token claim, never from the request body.
type TaskService interface {
	CreateTask(ctx context.Context, title, ownerUsername string) (*domain.Task, error)
	ListTasks(ctx context.Context, ownerUsername string) ([]domain.Task, error)
	DeleteTasks(ctx context.Context, ownerUsername string) (int64, error)
}

type taskService struct {
	tasks repository.TaskRepository
}

func NewTaskService(tasks repository.TaskRepository) TaskService {
	return &taskService{tasks: tasks}
}

func (s *taskService) CreateTask(ctx context.Context, title, ownerUsername string) (*domain.Task, error) {
	task := &domain.Task{
		ID:            uuid.NewString(),
		Title:         title,
		OwnerUsername: ownerUsername,
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) ListTasks(ctx context.Context, ownerUsername string) ([]domain.Task, error) {
	return s.tasks.ListByOwner(ctx, ownerUsername)
}

// DeleteTasks removes every task for the owner. Deleting when none exist is
// not an error; the count is zero.
func (s *taskService) DeleteTasks(ctx context.Context, ownerUsername string) (int64, error) {
	return s.tasks.DeleteAllByOwner(ctx, ownerUsername)
}
