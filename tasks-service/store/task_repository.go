package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/chepyr/tasks-api/shared/models"
	"github.com/google/uuid"
)

// DefaultMaxRecords bounds the store when no capacity is configured.
const DefaultMaxRecords = 1000

var (
	ErrCapacityExceeded = errors.New("maximum records limit reached")
	ErrDuplicateID      = errors.New("task id already exists")
)

// defines methods for task storage operations
type TaskRepositoryInterface interface {
	Insert(task models.Task) (models.Task, error)
	GetByID(id uuid.UUID) (models.Task, bool)
	Update(id uuid.UUID, fields models.TaskFields) (models.Task, bool)
	GetAll() []models.Task
	Count() int
}

// TaskRepository keeps tasks in memory for the lifetime of the process.
// Records are copied in and out, so callers never share pointers with the map.
type TaskRepository struct {
	mu         sync.RWMutex
	tasks      map[uuid.UUID]models.Task
	order      []uuid.UUID
	maxRecords int
}

func NewTaskRepository(maxRecords int) *TaskRepository {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	return &TaskRepository{
		tasks:      make(map[uuid.UUID]models.Task),
		maxRecords: maxRecords,
	}
}

func (r *TaskRepository) Insert(task models.Task) (models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.tasks) >= r.maxRecords {
		return models.Task{}, fmt.Errorf("insert task %s: %w (max %d)", task.ID, ErrCapacityExceeded, r.maxRecords)
	}
	if _, exists := r.tasks[task.ID]; exists {
		return models.Task{}, fmt.Errorf("insert task %s: %w", task.ID, ErrDuplicateID)
	}
	task = cloneTask(task)
	r.tasks[task.ID] = task
	r.order = append(r.order, task.ID)
	return cloneTask(task), nil
}

func (r *TaskRepository) GetByID(id uuid.UUID) (models.Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return models.Task{}, false
	}
	return cloneTask(task), true
}

// Update replaces the mutable fields of the task. ID, OwnerID and CreatedAt are kept.
func (r *TaskRepository) Update(id uuid.UUID, fields models.TaskFields) (models.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok {
		return models.Task{}, false
	}
	task.Title = fields.Title
	task.Description = fields.Description
	task.DueDate = fields.DueDate
	task.Priority = fields.Priority
	task.Status = fields.Status
	task.UpdatedAt = fields.UpdatedAt
	task.CompletedAt = fields.CompletedAt

	task = cloneTask(task)
	r.tasks[id] = task
	return cloneTask(task), true
}

// GetAll returns every task in insertion order.
func (r *TaskRepository) GetAll() []models.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Task, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, cloneTask(r.tasks[id]))
	}
	return out
}

func (r *TaskRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

func cloneTask(t models.Task) models.Task {
	if t.Description != nil {
		d := *t.Description
		t.Description = &d
	}
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	if t.CompletedAt != nil {
		c := *t.CompletedAt
		t.CompletedAt = &c
	}
	return t
}
