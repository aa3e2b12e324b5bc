package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhub/internal/application"
	"github.com/oksasatya/taskhub/internal/domain/entity"
	repo "github.com/oksasatya/taskhub/internal/domain/repository"
	"github.com/oksasatya/taskhub/pkg/response"
)

type TaskHandler struct {
	Tasks  *application.TaskService
	Logger *logrus.Logger
}

func NewTaskHandler(tasks *application.TaskService, logger *logrus.Logger) *TaskHandler {
	return &TaskHandler{Tasks: tasks, Logger: logger}
}

// taskRequest is shared by create and update; absent fields stay unchanged on update.
type taskRequest struct {
	Title          *string    `json:"title" binding:"omitempty,min=1,max=200"`
	Description    *string    `json:"description" binding:"omitempty,max=2000"`
	Priority       *string    `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	Status         *string    `json:"status" binding:"omitempty,oneof=todo in_progress review done"`
	ProjectID      *string    `json:"project_id"`
	AssigneeID     *string    `json:"assignee_id"`
	DueDate        *time.Time `json:"due_date"`
	ClearDueDate   bool       `json:"clear_due_date"`
	Tags           []string   `json:"tags" binding:"omitempty,max=20,dive,min=1,max=30"`
	EstimatedHours *float64   `json:"estimated_hours" binding:"omitempty,gte=0"`
}

func (r taskRequest) input() application.TaskInput {
	in := application.TaskInput{
		Title:          r.Title,
		Description:    r.Description,
		ProjectID:      r.ProjectID,
		AssigneeID:     r.AssigneeID,
		DueDate:        r.DueDate,
		ClearDueDate:   r.ClearDueDate,
		Tags:           r.Tags,
		EstimatedHours: r.EstimatedHours,
	}
	if r.Priority != nil {
		p := entity.TaskPriority(*r.Priority)
		in.Priority = &p
	}
	if r.Status != nil {
		s := entity.TaskStatus(*r.Status)
		in.Status = &s
	}
	return in
}

type listTasksQuery struct {
	pageQuery
	ProjectID  string `form:"project_id"`
	Status     string `form:"status" binding:"omitempty,oneof=todo in_progress review done"`
	Priority   string `form:"priority" binding:"omitempty,oneof=low medium high urgent"`
	AssigneeID string `form:"assignee_id"`
	CreatorID  string `form:"creator_id"`
	Q          string `form:"q" binding:"max=200"`
	Mine       bool   `form:"mine"`
	Overdue    bool   `form:"overdue"`
	Sort       string `form:"sort" binding:"omitempty,oneof=due_date created_at priority"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required,oneof=todo in_progress review done"`
}

type subtaskRequest struct {
	Title string `json:"title" binding:"required,max=200"`
}

type subtaskPatchRequest struct {
	Title     *string `json:"title" binding:"omitempty,min=1,max=200"`
	Completed *bool   `json:"completed"`
}

type logTimeRequest struct {
	Minutes int `json:"minutes" binding:"required,gt=0,max=10080"`
}

type commentRequest struct {
	Content     string              `json:"content" binding:"required,max=1000"`
	Attachments []entity.Attachment `json:"attachments" binding:"omitempty,max=10"`
}

// Create POST /api/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req taskRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Title == nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"title": "is required"})
		return
	}
	t, err := h.Tasks.Create(c.Request.Context(), actorOf(c), req.input())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, t, "task created", nil)
}

// List GET /api/tasks
func (h *TaskHandler) List(c *gin.Context) {
	var q listTasksQuery
	if !bindQuery(c, &q) {
		return
	}
	page, limit := q.normalized()
	tasks, total, err := h.Tasks.List(c.Request.Context(), actorOf(c), application.TaskQuery{
		ProjectID:  q.ProjectID,
		Status:     entity.TaskStatus(q.Status),
		Priority:   entity.TaskPriority(q.Priority),
		AssigneeID: q.AssigneeID,
		CreatorID:  q.CreatorID,
		Q:          q.Q,
		Mine:       q.Mine,
		Overdue:    q.Overdue,
		Sort:       repo.TaskSort(q.Sort),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, tasks, "tasks", response.NewPageMeta(page, limit, total))
}

// Search GET /api/tasks/search?q=&limit=
func (h *TaskHandler) Search(c *gin.Context) {
	var q struct {
		Q     string `form:"q" binding:"required,max=200"`
		Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
	}
	if !bindQuery(c, &q) {
		return
	}
	tasks, err := h.Tasks.Search(c.Request.Context(), actorOf(c), q.Q, q.Limit)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, tasks, "search results", gin.H{"count": len(tasks)})
}

func (h *TaskHandler) Get(c *gin.Context) {
	t, err := h.Tasks.Get(c.Request.Context(), actorOf(c), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, t, "task", nil)
}

func (h *TaskHandler) Update(c *gin.Context) {
	var req taskRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.Tasks.Update(c.Request.Context(), actorOf(c), c.Param("id"), req.input())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, t, "task updated", nil)
}

// UpdateStatus PATCH /api/tasks/:id/status
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.Tasks.UpdateStatus(c.Request.Context(), actorOf(c), c.Param("id"), entity.TaskStatus(req.Status))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, t, "status updated", nil)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.Tasks.Delete(c.Request.Context(), actorOf(c), c.Param("id")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true}, "task deleted", nil)
}

func (h *TaskHandler) AddSubtask(c *gin.Context) {
	var req subtaskRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.Tasks.AddSubtask(c.Request.Context(), actorOf(c), c.Param("id"), req.Title)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, t, "subtask added", nil)
}

func (h *TaskHandler) UpdateSubtask(c *gin.Context) {
	var req subtaskPatchRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.Tasks.UpdateSubtask(c.Request.Context(), actorOf(c), c.Param("id"), c.Param("sid"), application.SubtaskInput{Title: req.Title, Completed: req.Completed})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, t, "subtask updated", nil)
}

func (h *TaskHandler) DeleteSubtask(c *gin.Context) {
	t, err := h.Tasks.DeleteSubtask(c.Request.Context(), actorOf(c), c.Param("id"), c.Param("sid"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, t, "subtask deleted", nil)
}

func (h *TaskHandler) StartTimer(c *gin.Context) {
	t, err := h.Tasks.StartTimer(c.Request.Context(), actorOf(c), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, t, "timer started", nil)
}

func (h *TaskHandler) StopTimer(c *gin.Context) {
	t, err := h.Tasks.StopTimer(c.Request.Context(), actorOf(c), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, t, "timer stopped", nil)
}

// LogTime POST /api/tasks/:id/time
func (h *TaskHandler) LogTime(c *gin.Context) {
	var req logTimeRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.Tasks.LogTime(c.Request.Context(), actorOf(c), c.Param("id"), req.Minutes)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, t, "time logged", nil)
}

func (h *TaskHandler) ListComments(c *gin.Context) {
	var q pageQuery
	if !bindQuery(c, &q) {
		return
	}
	page, limit := q.normalized()
	comments, total, err := h.Tasks.ListComments(c.Request.Context(), actorOf(c), c.Param("id"), page, limit)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, comments, "comments", response.NewPageMeta(page, limit, total))
}

func (h *TaskHandler) AddComment(c *gin.Context) {
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}
	cm, err := h.Tasks.AddComment(c.Request.Context(), actorOf(c), c.Param("id"), req.Content, req.Attachments)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, cm, "comment added", nil)
}

func (h *TaskHandler) UpdateComment(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required,max=1000"`
	}
	if !bindJSON(c, &req) {
		return
	}
	cm, err := h.Tasks.UpdateComment(c.Request.Context(), actorOf(c), c.Param("id"), c.Param("cid"), req.Content)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, cm, "comment updated", nil)
}

func (h *TaskHandler) DeleteComment(c *gin.Context) {
	if err := h.Tasks.DeleteComment(c.Request.Context(), actorOf(c), c.Param("id"), c.Param("cid")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true}, "comment deleted", nil)
}
