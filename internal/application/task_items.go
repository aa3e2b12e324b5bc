package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/taskhub/internal/domain/entity"
	repo "github.com/oksasatya/taskhub/internal/domain/repository"
)

// ---- subtasks ----

func (s *TaskService) AddSubtask(ctx context.Context, actor Actor, taskID, title string) (*entity.Task, error) {
	t, _, err := s.access(ctx, actor, taskID, canEditTask)
	if err != nil {
		return nil, err
	}
	t.Subtasks = append(t.Subtasks, entity.Subtask{ID: uuid.NewString(), Title: strings.TrimSpace(title)})
	return s.save(ctx, actor, t, "subtask.created", fmt.Sprintf("added subtask %q", title))
}

type SubtaskInput struct {
	Title     *string
	Completed *bool
}

func (s *TaskService) UpdateSubtask(ctx context.Context, actor Actor, taskID, subtaskID string, in SubtaskInput) (*entity.Task, error) {
	t, _, err := s.access(ctx, actor, taskID, canEditTask)
	if err != nil {
		return nil, err
	}
	_, st := t.Subtask(subtaskID)
	if st == nil {
		return nil, ErrSubtaskNotFound
	}
	if in.Title != nil {
		st.Title = strings.TrimSpace(*in.Title)
	}
	if in.Completed != nil && *in.Completed != st.Completed {
		st.Completed = *in.Completed
		if st.Completed {
			now := time.Now().UTC()
			st.CompletedAt = &now
		} else {
			st.CompletedAt = nil
		}
	}
	return s.save(ctx, actor, t, "subtask.updated", fmt.Sprintf("updated subtask %q", st.Title))
}

func (s *TaskService) DeleteSubtask(ctx context.Context, actor Actor, taskID, subtaskID string) (*entity.Task, error) {
	t, _, err := s.access(ctx, actor, taskID, canEditTask)
	if err != nil {
		return nil, err
	}
	i, st := t.Subtask(subtaskID)
	if st == nil {
		return nil, ErrSubtaskNotFound
	}
	title := st.Title
	t.Subtasks = append(t.Subtasks[:i], t.Subtasks[i+1:]...)
	return s.save(ctx, actor, t, "subtask.deleted", fmt.Sprintf("removed subtask %q", title))
}

// ---- time tracking ----

// StartTimer starts the task's single running timer.
func (s *TaskService) StartTimer(ctx context.Context, actor Actor, taskID string) (*entity.Task, error) {
	t, _, err := s.access(ctx, actor, taskID, canEditTask)
	if err != nil {
		return nil, err
	}
	if t.TimeTracking.TimerStartedAt != nil {
		return nil, ErrTimerRunning
	}
	now := time.Now().UTC()
	t.TimeTracking.TimerStartedAt = &now
	t.TimeTracking.TimerStartedBy = actor.ID
	return s.save(ctx, actor, t, "timer.started", "started the timer")
}

// StopTimer stops the running timer and logs the elapsed whole minutes, at least one.
func (s *TaskService) StopTimer(ctx context.Context, actor Actor, taskID string) (*entity.Task, error) {
	t, _, err := s.access(ctx, actor, taskID, canEditTask)
	if err != nil {
		return nil, err
	}
	started := t.TimeTracking.TimerStartedAt
	if started == nil {
		return nil, ErrTimerNotRunning
	}
	minutes := elapsedMinutes(*started, time.Now().UTC())
	t.TimeTracking.LoggedMinutes += minutes
	t.TimeTracking.TimerStartedAt = nil
	t.TimeTracking.TimerStartedBy = ""
	return s.save(ctx, actor, t, "timer.stopped", fmt.Sprintf("logged %d minutes", minutes))
}

func elapsedMinutes(from, to time.Time) int {
	m := int(to.Sub(from) / time.Minute)
	if m < 1 {
		return 1
	}
	return m
}

// LogTime adds manually tracked minutes.
// MaxLogMinutes caps a single manual time entry at one week.
const MaxLogMinutes = 7 * 24 * 60

func (s *TaskService) LogTime(ctx context.Context, actor Actor, taskID string, minutes int) (*entity.Task, error) {
	if minutes <= 0 {
		return nil, &entity.ValidationError{Fields: map[string]string{"minutes": "must be greater than 0"}}
	}
	if minutes > MaxLogMinutes {
		return nil, &entity.ValidationError{Fields: map[string]string{"minutes": fmt.Sprintf("must be at most %d", MaxLogMinutes)}}
	}
	t, _, err := s.access(ctx, actor, taskID, canEditTask)
	if err != nil {
		return nil, err
	}
	t.TimeTracking.LoggedMinutes += minutes
	return s.save(ctx, actor, t, "time.logged", fmt.Sprintf("logged %d minutes", minutes))
}

// ---- attachments ----

func (s *TaskService) AddAttachment(ctx context.Context, actor Actor, taskID string, a entity.Attachment) (*entity.Task, error) {
	t, _, err := s.access(ctx, actor, taskID, canEditTask)
	if err != nil {
		return nil, err
	}
	t.Attachments = append(t.Attachments, a)
	return s.save(ctx, actor, t, "attachment.added", fmt.Sprintf("attached %s", a.Filename))
}

// ---- comments ----

func (s *TaskService) ListComments(ctx context.Context, actor Actor, taskID string, page, limit int) ([]*entity.Comment, int64, error) {
	if _, _, err := s.access(ctx, actor, taskID, canViewTask); err != nil {
		return nil, 0, err
	}
	page, limit = clampPage(page, limit)
	return s.Comments.ListByTask(ctx, taskID, (page-1)*limit, limit)
}

// AddComment lets anyone who can see the task comment on it.
func (s *TaskService) AddComment(ctx context.Context, actor Actor, taskID, content string, attachments []entity.Attachment) (*entity.Comment, error) {
	t, _, err := s.access(ctx, actor, taskID, canViewTask)
	if err != nil {
		return nil, err
	}
	if attachments == nil {
		attachments = []entity.Attachment{}
	}
	c := &entity.Comment{
		TaskID:      taskID,
		AuthorID:    actor.ID,
		Content:     strings.TrimSpace(content),
		Attachments: append([]entity.Attachment{}, attachments...),
	}
	if err := s.Comments.Create(ctx, c); err != nil {
		return nil, err
	}
	if err := s.Repo.IncrementComments(ctx, taskID, 1); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("task_id", taskID).Warn("increment comment count failed")
	}

	s.record(ctx, actor, t, "comment.created", fmt.Sprintf("commented on %q", t.Title), map[string]any{"comment_id": c.ID})
	s.emit(t, EventCommentNew, c)
	author := fallback(s.userName(ctx, actor.ID), "Someone")
	s.notifyWatchers(ctx, actor, t, entity.NotifyTaskComment, "New comment",
		fmt.Sprintf("%s commented on %q", author, t.Title), actor.ID)
	return c, nil
}

// comment loads a comment of taskID the actor may change.
func (s *TaskService) comment(ctx context.Context, actor Actor, taskID, commentID string) (*entity.Task, *entity.Comment, error) {
	t, _, err := s.access(ctx, actor, taskID, canViewTask)
	if err != nil {
		return nil, nil, err
	}
	c, err := s.Comments.GetByID(ctx, commentID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && c.TaskID != taskID) {
		return nil, nil, ErrCommentNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if c.AuthorID != actor.ID && !actor.IsAdmin() {
		return nil, nil, ErrForbidden
	}
	return t, c, nil
}

func (s *TaskService) UpdateComment(ctx context.Context, actor Actor, taskID, commentID, content string) (*entity.Comment, error) {
	t, c, err := s.comment(ctx, actor, taskID, commentID)
	if err != nil {
		return nil, err
	}
	c.Content = strings.TrimSpace(content)
	if err := s.Comments.Update(ctx, c); err != nil {
		return nil, err
	}
	s.emit(t, EventCommentUpdated, c)
	return c, nil
}

func (s *TaskService) DeleteComment(ctx context.Context, actor Actor, taskID, commentID string) error {
	t, c, err := s.comment(ctx, actor, taskID, commentID)
	if err != nil {
		return err
	}
	if err := s.Comments.Delete(ctx, c.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	if err := s.Repo.IncrementComments(ctx, taskID, -1); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("task_id", taskID).Warn("decrement comment count failed")
	}
	s.emit(t, EventCommentDeleted, map[string]any{"id": c.ID, "task_id": taskID})
	return nil
}
