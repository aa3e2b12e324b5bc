package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhub/internal/domain/entity"
	repo "github.com/oksasatya/taskhub/internal/domain/repository"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type TaskService struct {
	Repo     repo.TaskRepository
	Comments repo.CommentRepository
	Projects repo.ProjectRepository
	Users    repo.UserRepository
	Notify   *NotificationService
	Activity *ActivityService
	Mail     *MailOutbox
	Index    SearchIndex
	Emitter  Emitter
	Logger   *logrus.Logger
}

func NewTaskService(r repo.TaskRepository, comments repo.CommentRepository, projects repo.ProjectRepository, users repo.UserRepository, notify *NotificationService, activity *ActivityService, mail *MailOutbox, index SearchIndex, emitter Emitter, logger *logrus.Logger) *TaskService {
	if emitter == nil {
		emitter = nopEmitter{}
	}
	return &TaskService{
		Repo:     r,
		Comments: comments,
		Projects: projects,
		Users:    users,
		Notify:   notify,
		Activity: activity,
		Mail:     mail,
		Index:    index,
		Emitter:  emitter,
		Logger:   logger,
	}
}

// ---- access ----

func (s *TaskService) load(ctx context.Context, id string) (*entity.Task, error) {
	t, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrTaskNotFound
	}
	return t, err
}

// projectOf returns the task's project or nil for project-less tasks.
func (s *TaskService) projectOf(ctx context.Context, projectID string) (*entity.Project, error) {
	if projectID == "" {
		return nil, nil
	}
	p, err := s.Projects.GetByID(ctx, projectID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrProjectNotFound
	}
	return p, err
}

func canViewTask(actor Actor, t *entity.Task, p *entity.Project) bool {
	switch {
	case actor.IsAdmin(), t.CreatorID == actor.ID, t.AssigneeID == actor.ID:
		return true
	case p != nil:
		return p.IsMember(actor.ID)
	}
	return t.ProjectID == "" && actor.IsManager()
}

func canEditTask(actor Actor, t *entity.Task, p *entity.Project) bool {
	switch {
	case actor.IsAdmin(), t.CreatorID == actor.ID, t.AssigneeID == actor.ID:
		return true
	case p != nil:
		return p.CanContribute(actor.ID)
	}
	return t.ProjectID == "" && actor.IsManager()
}

func canDeleteTask(actor Actor, t *entity.Task, p *entity.Project) bool {
	return actor.IsAdmin() || t.CreatorID == actor.ID || (p != nil && p.CanManage(actor.ID))
}

// access loads the task and its project and checks the given permission.
func (s *TaskService) access(ctx context.Context, actor Actor, id string, allowed func(Actor, *entity.Task, *entity.Project) bool) (*entity.Task, *entity.Project, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.projectOf(ctx, t.ProjectID)
	if err != nil && !errors.Is(err, ErrProjectNotFound) {
		return nil, nil, err
	}
	if !canViewTask(actor, t, p) {
		// do not reveal tasks the caller cannot see
		return nil, nil, ErrTaskNotFound
	}
	if !allowed(actor, t, p) {
		return nil, nil, ErrForbidden
	}
	return t, p, nil
}

// ---- side effects ----

func (s *TaskService) emit(t *entity.Task, event string, data any) {
	if t.ProjectID != "" {
		s.Emitter.ToProject(t.ProjectID, event, data)
		return
	}
	s.Emitter.ToUsers(t.Watchers(), "", event, data)
}

func (s *TaskService) record(ctx context.Context, actor Actor, t *entity.Task, action, msg string, meta map[string]any) {
	s.Activity.Record(ctx, entity.Activity{
		ActorID:   actor.ID,
		ProjectID: t.ProjectID,
		TaskID:    t.ID,
		Action:    action,
		Message:   msg,
		Metadata:  meta,
	})
}

func (s *TaskService) indexTask(ctx context.Context, t *entity.Task) {
	if s.Index == nil {
		return
	}
	doc := map[string]any{
		"id":          t.ID,
		"title":       t.Title,
		"description": t.Description,
		"tags":        t.Tags,
		"status":      t.Status,
		"priority":    t.Priority,
		"project_id":  t.ProjectID,
		"assignee_id": t.AssigneeID,
		"creator_id":  t.CreatorID,
		"updated_at":  t.UpdatedAt.Format(time.RFC3339Nano),
	}
	if err := s.Index.Put(ctx, t.ID, doc); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("task_id", t.ID).Warn("es index task failed")
	}
}

func (s *TaskService) unindexTask(ctx context.Context, id string) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Remove(ctx, id); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("task_id", id).Warn("es remove task failed")
	}
}

func (s *TaskService) userName(ctx context.Context, id string) string {
	if u, err := s.Users.GetByID(ctx, id); err == nil {
		return u.Name
	}
	return ""
}

// assigned tells a new assignee about the task over every channel.
func (s *TaskService) assigned(ctx context.Context, actor Actor, t *entity.Task) {
	if t.AssigneeID == "" {
		return
	}
	s.Emitter.ToUsers([]string{t.AssigneeID}, "", EventTaskAssigned, t)
	if t.AssigneeID == actor.ID {
		return
	}
	actorName := s.userName(ctx, actor.ID)
	s.Notify.Notify(ctx, entity.Notification{
		RecipientID: t.AssigneeID,
		SenderID:    actor.ID,
		Type:        entity.NotifyTaskAssigned,
		Title:       "New task assigned",
		Message:     fmt.Sprintf("%s assigned you %q", fallback(actorName, "Someone"), t.Title),
		TaskID:      t.ID,
		ProjectID:   t.ProjectID,
	})
	if u, err := s.Users.GetByID(ctx, t.AssigneeID); err == nil {
		s.Mail.TaskAssigned(ctx, u, actorName, t)
	}
}

// notifyWatchers sends a notification to creator and assignee except the actor
// and anyone in skip.
func (s *TaskService) notifyWatchers(ctx context.Context, actor Actor, t *entity.Task, typ entity.NotificationType, title, msg string, skip ...string) {
	for _, uid := range t.Watchers() {
		if contains(skip, uid) {
			continue
		}
		s.Notify.Notify(ctx, entity.Notification{
			RecipientID: uid,
			SenderID:    actor.ID,
			Type:        typ,
			Title:       title,
			Message:     msg,
			TaskID:      t.ID,
			ProjectID:   t.ProjectID,
		})
	}
}

// save persists t after an in-place change and fans out the update.
func (s *TaskService) save(ctx context.Context, actor Actor, t *entity.Task, action, msg string) (*entity.Task, error) {
	if err := s.Repo.Update(ctx, t); err != nil {
		return nil, err
	}
	s.record(ctx, actor, t, action, msg, nil)
	s.indexTask(ctx, t)
	s.emit(t, EventTaskUpdated, t)
	return t, nil
}

// ---- queries ----

type TaskQuery struct {
	ProjectID  string
	Status     entity.TaskStatus
	Priority   entity.TaskPriority
	AssigneeID string
	CreatorID  string
	Q          string
	Mine       bool
	Overdue    bool
	Sort       repo.TaskSort
	Page       int
	Limit      int
}

// VisibilityFilter restricts a task filter to what actor may see.
func (s *TaskService) VisibilityFilter(ctx context.Context, actor Actor) (repo.TaskFilter, error) {
	if actor.IsAdmin() {
		return repo.TaskFilter{}, nil
	}
	ps, err := s.Projects.ListForMember(ctx, actor.ID)
	if err != nil {
		return repo.TaskFilter{}, err
	}
	ids := make([]string, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	return repo.TaskFilter{VisibleTo: actor.ID, VisibleProjects: ids, VisibleUnscoped: actor.IsManager()}, nil
}

func clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

func (s *TaskService) List(ctx context.Context, actor Actor, q TaskQuery) ([]*entity.Task, int64, error) {
	f, err := s.VisibilityFilter(ctx, actor)
	if err != nil {
		return nil, 0, err
	}
	page, limit := clampPage(q.Page, q.Limit)
	f.ProjectID = q.ProjectID
	f.Status = q.Status
	f.Priority = q.Priority
	f.AssigneeID = q.AssigneeID
	f.CreatorID = q.CreatorID
	f.Query = strings.TrimSpace(q.Q)
	f.Sort = q.Sort
	f.Offset = (page - 1) * limit
	f.Limit = limit
	if q.Mine {
		f.AssigneeID = actor.ID
	}
	if q.Overdue {
		now := time.Now().UTC()
		f.DueBefore = &now
		f.ExcludeDone = true
	}
	return s.Repo.List(ctx, f)
}

// Search uses Elasticsearch when configured and the list filter otherwise.
func (s *TaskService) Search(ctx context.Context, actor Actor, q string, limit int) ([]*entity.Task, error) {
	_, limit = clampPage(1, limit)
	if s.Index == nil {
		tasks, _, err := s.List(ctx, actor, TaskQuery{Q: q, Limit: limit})
		return tasks, err
	}
	hits, err := s.Index.Search(ctx, map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"title^3", "tags^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"size": limit,
	})
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).Warn("task search failed, using list filter")
		}
		tasks, _, err := s.List(ctx, actor, TaskQuery{Q: q, Limit: limit})
		return tasks, err
	}
	out := make([]*entity.Task, 0, len(hits))
	for _, h := range hits {
		t, _, err := s.access(ctx, actor, h.ID, canViewTask)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *TaskService) Get(ctx context.Context, actor Actor, id string) (*entity.Task, error) {
	t, _, err := s.access(ctx, actor, id, canViewTask)
	return t, err
}

// ---- mutations ----

type TaskInput struct {
	Title          *string
	Description    *string
	Priority       *entity.TaskPriority
	Status         *entity.TaskStatus
	ProjectID      *string
	AssigneeID     *string
	DueDate        *time.Time
	ClearDueDate   bool
	Tags           []string
	EstimatedHours *float64
}

// checkPlacement validates the project and assignee a task is about to have.
func (s *TaskService) checkPlacement(ctx context.Context, actor Actor, projectID, assigneeID string) error {
	p, err := s.projectOf(ctx, projectID)
	if err != nil {
		return err
	}
	if p != nil && !actor.IsAdmin() && !p.CanContribute(actor.ID) {
		return ErrForbidden
	}
	if assigneeID == "" {
		return nil
	}
	if _, err := s.Users.GetByID(ctx, assigneeID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrAssigneeNotFound
		}
		return err
	}
	if p != nil && !p.IsMember(assigneeID) {
		return ErrNotMember
	}
	return nil
}

func (in TaskInput) apply(t *entity.Task, now time.Time) {
	if in.Title != nil {
		t.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if in.ProjectID != nil {
		t.ProjectID = *in.ProjectID
	}
	if in.AssigneeID != nil {
		t.AssigneeID = *in.AssigneeID
	}
	if in.ClearDueDate {
		t.DueDate = nil
	} else if in.DueDate != nil {
		d := in.DueDate.UTC()
		t.DueDate = &d
	}
	if in.Tags != nil {
		t.Tags = normalizeTags(in.Tags)
	}
	if in.EstimatedHours != nil {
		t.TimeTracking.EstimatedHours = *in.EstimatedHours
	}
	if in.Status != nil {
		t.SetStatus(*in.Status, now)
	}
}

func (s *TaskService) Create(ctx context.Context, actor Actor, in TaskInput) (*entity.Task, error) {
	now := time.Now().UTC()
	t := &entity.Task{
		CreatorID:   actor.ID,
		Priority:    entity.PriorityMedium,
		Status:      entity.TaskTodo,
		Tags:        []string{},
		Subtasks:    []entity.Subtask{},
		Attachments: []entity.Attachment{},
	}
	in.apply(t, now)
	if err := s.checkPlacement(ctx, actor, t.ProjectID, t.AssigneeID); err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, t); err != nil {
		return nil, err
	}
	s.record(ctx, actor, t, "task.created", fmt.Sprintf("created task %q", t.Title), nil)
	s.indexTask(ctx, t)
	s.emit(t, EventTaskCreated, t)
	s.assigned(ctx, actor, t)
	return t, nil
}

func (s *TaskService) Update(ctx context.Context, actor Actor, id string, in TaskInput) (*entity.Task, error) {
	t, _, err := s.access(ctx, actor, id, canEditTask)
	if err != nil {
		return nil, err
	}
	prevAssignee, prevProject, prevStatus := t.AssigneeID, t.ProjectID, t.Status
	in.apply(t, time.Now().UTC())
	if t.ProjectID != prevProject || t.AssigneeID != prevAssignee {
		if err := s.checkPlacement(ctx, actor, t.ProjectID, t.AssigneeID); err != nil {
			return nil, err
		}
	}
	if err := s.Repo.Update(ctx, t); err != nil {
		return nil, err
	}

	meta := map[string]any{}
	if t.Status != prevStatus {
		meta["status"] = map[string]any{"from": prevStatus, "to": t.Status}
	}
	if t.AssigneeID != prevAssignee {
		meta["assignee_id"] = map[string]any{"from": prevAssignee, "to": t.AssigneeID}
	}
	s.record(ctx, actor, t, "task.updated", fmt.Sprintf("updated task %q", t.Title), meta)
	s.indexTask(ctx, t)
	if prevProject != "" && prevProject != t.ProjectID {
		s.Emitter.ToProject(prevProject, EventTaskDeleted, map[string]any{"id": t.ID, "project_id": prevProject})
	}
	s.emit(t, EventTaskUpdated, t)

	skip := []string{actor.ID}
	if t.AssigneeID != prevAssignee {
		s.assigned(ctx, actor, t)
		skip = append(skip, t.AssigneeID)
	}
	s.notifyWatchers(ctx, actor, t, entity.NotifyTaskUpdated, "Task updated", fmt.Sprintf("%q was updated", t.Title), skip...)
	return t, nil
}

func (s *TaskService) UpdateStatus(ctx context.Context, actor Actor, id string, status entity.TaskStatus) (*entity.Task, error) {
	return s.Update(ctx, actor, id, TaskInput{Status: &status})
}

// Delete removes the task and its comments.
func (s *TaskService) Delete(ctx context.Context, actor Actor, id string) error {
	t, _, err := s.access(ctx, actor, id, canDeleteTask)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrTaskNotFound
		}
		return err
	}
	if err := s.Comments.DeleteByTask(ctx, id); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("task_id", id).Warn("delete task comments failed")
	}
	s.record(ctx, actor, t, "task.deleted", fmt.Sprintf("deleted task %q", t.Title), nil)
	s.unindexTask(ctx, id)
	s.emit(t, EventTaskDeleted, map[string]any{"id": id, "project_id": t.ProjectID})
	return nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" && !contains(out, tag) {
			out = append(out, tag)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func fallback(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
