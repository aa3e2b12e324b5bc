package repository

import (
	"context"
	"time"

	"github.com/oksasatya/taskhub/internal/domain/entity"
)

type TaskSort string

const (
	SortCreated  TaskSort = "created_at"
	SortDueDate  TaskSort = "due_date"
	SortPriority TaskSort = "priority"
)

// TaskFilter narrows task listings. Visibility restricts results to tasks the
// given user may see: tasks in VisibleProjects plus tasks they created or are
// assigned to, plus every project-less task when VisibleUnscoped is set.
// An empty VisibleTo disables the restriction.
type TaskFilter struct {
	ProjectID       string
	Status          entity.TaskStatus
	Priority        entity.TaskPriority
	AssigneeID      string
	CreatorID       string
	Query           string
	DueBefore       *time.Time
	ExcludeDone     bool
	VisibleTo       string
	VisibleProjects []string
	VisibleUnscoped bool
	Sort            TaskSort
	Offset          int
	Limit           int
}

type TaskStats struct {
	ByStatus   map[entity.TaskStatus]int64   `json:"by_status"`
	ByPriority map[entity.TaskPriority]int64 `json:"by_priority"`
	Total      int64                         `json:"total"`
}

type TaskRepository interface {
	Create(ctx context.Context, t *entity.Task) error
	GetByID(ctx context.Context, id string) (*entity.Task, error)
	List(ctx context.Context, f TaskFilter) ([]*entity.Task, int64, error)
	Stats(ctx context.Context, f TaskFilter) (TaskStats, error)
	Update(ctx context.Context, t *entity.Task) error
	Delete(ctx context.Context, id string) error
	IncrementComments(ctx context.Context, id string, delta int) error
}

type CommentRepository interface {
	Create(ctx context.Context, c *entity.Comment) error
	GetByID(ctx context.Context, id string) (*entity.Comment, error)
	ListByTask(ctx context.Context, taskID string, offset, limit int) ([]*entity.Comment, int64, error)
	Update(ctx context.Context, c *entity.Comment) error
	Delete(ctx context.Context, id string) error
	DeleteByTask(ctx context.Context, taskID string) error
}
