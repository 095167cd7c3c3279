package models

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "Pendente"
	TaskStatusInProgress TaskStatus = "Em andamento"
	TaskStatusCompleted  TaskStatus = "Concluída"
	TaskStatusCancelled  TaskStatus = "Cancelada"
)

// TaskStatuses lists every accepted status in display order.
var TaskStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusInProgress,
	TaskStatusCompleted,
	TaskStatusCancelled,
}

func (s TaskStatus) Valid() bool {
	for _, v := range TaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "Baixa"
	TaskPriorityMedium TaskPriority = "Média"
	TaskPriorityHigh   TaskPriority = "Alta"
)

var TaskPriorities = []TaskPriority{
	TaskPriorityLow,
	TaskPriorityMedium,
	TaskPriorityHigh,
}

func (p TaskPriority) Valid() bool {
	for _, v := range TaskPriorities {
		if p == v {
			return true
		}
	}
	return false
}

// Task is owned by the caller that created it. ID, OwnerID and CreatedAt never change
// after creation.
type Task struct {
	ID          uuid.UUID    `json:"task_id"`
	OwnerID     string       `json:"user_id"`
	Title       string       `json:"title"`
	Description *string      `json:"description"`
	DueDate     *time.Time   `json:"due_date"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	CompletedAt *time.Time   `json:"completed_at"`
}

// TaskFields holds the mutable part of a Task, replaced as a whole on update.
type TaskFields struct {
	Title       string
	Description *string
	DueDate     *time.Time
	Priority    TaskPriority
	Status      TaskStatus
	UpdatedAt   time.Time
	CompletedAt *time.Time
}
