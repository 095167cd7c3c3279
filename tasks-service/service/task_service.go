package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/chepyr/tasks-api/shared"
	"github.com/chepyr/tasks-api/shared/models"
	"github.com/chepyr/tasks-api/tasks-service/store"
	"github.com/google/uuid"
)

// TaskService applies validation, ownership and status transition rules on top of a
// task repository. Callers are identified by an opaque id that is only compared
// against Task.OwnerID.
type TaskService struct {
	repo  store.TaskRepositoryInterface
	now   func() time.Time
	newID func() uuid.UUID
}

type Option func(*TaskService)

// WithClock replaces the time source. Timestamps are always stored in UTC.
func WithClock(now func() time.Time) Option {
	return func(s *TaskService) { s.now = now }
}

func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(s *TaskService) { s.newID = newID }
}

func NewTaskService(repo store.TaskRepositoryInterface, opts ...Option) *TaskService {
	s := &TaskService{
		repo:  repo,
		now:   time.Now,
		newID: uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates body and stores a new Pending task with Medium priority owned by ownerID.
func (s *TaskService) Create(ownerID string, body any) (models.Task, error) {
	now := s.now().UTC()

	in, errs := ValidateCreateTask(body, now)
	if len(errs) > 0 {
		return models.Task{}, shared.NewValidationError("Validation failed", errs)
	}

	task := models.Task{
		ID:          s.newID(),
		OwnerID:     ownerID,
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		Priority:    models.TaskPriorityMedium,
		Status:      models.TaskStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		CompletedAt: nil,
	}

	created, err := s.repo.Insert(task)
	if err != nil {
		if errors.Is(err, store.ErrCapacityExceeded) {
			return models.Task{}, shared.NewCapacityExceeded(err)
		}
		return models.Task{}, fmt.Errorf("create task: %w", err)
	}
	return created, nil
}

// Get returns the task named by params["id"]. Existence is checked before ownership.
func (s *TaskService) Get(callerID string, params any) (models.Task, error) {
	id, errs := ValidateTaskID(params)
	if len(errs) > 0 {
		return models.Task{}, shared.NewValidationError("Invalid task ID", errs)
	}
	return s.getOwned(callerID, id, "You do not have permission to access this task")
}

// Update replaces every mutable field of the task named by params["id"] with the
// validated body and recomputes CompletedAt from the status transition.
func (s *TaskService) Update(callerID string, params, body any) (models.Task, error) {
	id, errs := ValidateTaskID(params)
	if len(errs) > 0 {
		return models.Task{}, shared.NewValidationError("Invalid task ID", errs)
	}
	in, errs := ValidateUpdateTask(body)
	if len(errs) > 0 {
		return models.Task{}, shared.NewValidationError("Validation failed", errs)
	}

	existing, err := s.getOwned(callerID, id, "You do not have permission to update this task")
	if err != nil {
		return models.Task{}, err
	}

	now := s.now().UTC()
	updated, ok := s.repo.Update(id, models.TaskFields{
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		Priority:    in.Priority,
		Status:      in.Status,
		UpdatedAt:   now,
		CompletedAt: nextCompletedAt(existing, in.Status, now),
	})
	if !ok {
		return models.Task{}, shared.NewNotFound("Task not found")
	}
	return updated, nil
}

func (s *TaskService) getOwned(callerID string, id uuid.UUID, forbiddenMsg string) (models.Task, error) {
	task, ok := s.repo.GetByID(id)
	if !ok {
		return models.Task{}, shared.NewNotFound("Task not found")
	}
	if task.OwnerID != callerID {
		return models.Task{}, shared.NewForbidden(forbiddenMsg)
	}
	return task, nil
}

// nextCompletedAt is set on entering Completed, cleared on leaving it, and kept as is
// for every other transition, including Completed -> Completed.
func nextCompletedAt(prev models.Task, next models.TaskStatus, now time.Time) *time.Time {
	switch {
	case next == models.TaskStatusCompleted && prev.Status != models.TaskStatusCompleted:
		return &now
	case next != models.TaskStatusCompleted && prev.Status == models.TaskStatusCompleted:
		return nil
	default:
		return prev.CompletedAt
	}
}
