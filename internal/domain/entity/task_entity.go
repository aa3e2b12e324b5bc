package entity

import (
	"time"
)

type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskReview     TaskStatus = "review"
	TaskDone       TaskStatus = "done"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Weight orders priorities for sorting; unknown values sort last.
func (p TaskPriority) Weight() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

type Subtask struct {
	ID          string     `json:"id" bson:"id" validate:"required"`
	Title       string     `json:"title" bson:"title" validate:"required,max=200"`
	Completed   bool       `json:"completed" bson:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

// TimeTracking holds the estimate, the accumulated logged time and a running timer, if any.
type TimeTracking struct {
	EstimatedHours float64    `json:"estimated_hours" bson:"estimated_hours" validate:"gte=0"`
	LoggedMinutes  int        `json:"logged_minutes" bson:"logged_minutes" validate:"gte=0"`
	TimerStartedAt *time.Time `json:"timer_started_at,omitempty" bson:"timer_started_at,omitempty"`
	TimerStartedBy string     `json:"timer_started_by,omitempty" bson:"timer_started_by,omitempty"`
}

type Task struct {
	ID           string       `json:"id" bson:"_id"`
	Title        string       `json:"title" bson:"title" validate:"required,max=200"`
	Description  string       `json:"description" bson:"description" validate:"max=2000"`
	Priority     TaskPriority `json:"priority" bson:"priority" validate:"required,oneof=low medium high urgent"`
	Status       TaskStatus   `json:"status" bson:"status" validate:"required,oneof=todo in_progress review done"`
	ProjectID    string       `json:"project_id,omitempty" bson:"project_id,omitempty"`
	AssigneeID   string       `json:"assignee_id,omitempty" bson:"assignee_id,omitempty"`
	CreatorID    string       `json:"creator_id" bson:"creator_id" validate:"required"`
	DueDate      *time.Time   `json:"due_date,omitempty" bson:"due_date,omitempty"`
	Tags         []string     `json:"tags" bson:"tags" validate:"max=20,dive,required,max=30"`
	Subtasks     []Subtask    `json:"subtasks" bson:"subtasks" validate:"max=100,dive"`
	TimeTracking TimeTracking `json:"time_tracking" bson:"time_tracking"`
	Attachments  []Attachment `json:"attachments" bson:"attachments" validate:"max=50,dive"`
	CommentCount int          `json:"comment_count" bson:"comment_count" validate:"gte=0"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" bson:"updated_at"`
}

func (t *Task) Validate() error { return validateStruct(t) }

// SetStatus moves the task to s and keeps CompletedAt consistent with it.
func (t *Task) SetStatus(s TaskStatus, now time.Time) {
	if s == t.Status {
		return
	}
	t.Status = s
	if s == TaskDone {
		n := now
		t.CompletedAt = &n
	} else {
		t.CompletedAt = nil
	}
}

// IsOverdue reports whether the task has a due date in the past and is not done.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.Status != TaskDone && t.DueDate.Before(now)
}

func (t *Task) Subtask(id string) (int, *Subtask) {
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == id {
			return i, &t.Subtasks[i]
		}
	}
	return -1, nil
}

// Watchers are the users who hear about changes to a task: creator and assignee.
func (t *Task) Watchers() []string {
	out := []string{t.CreatorID}
	if t.AssigneeID != "" && t.AssigneeID != t.CreatorID {
		out = append(out, t.AssigneeID)
	}
	return out
}
