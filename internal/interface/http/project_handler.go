package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhub/internal/application"
	"github.com/oksasatya/taskhub/internal/domain/entity"
	"github.com/oksasatya/taskhub/pkg/response"
)

type ProjectHandler struct {
	Projects *application.ProjectService
	Logger   *logrus.Logger
}

func NewProjectHandler(projects *application.ProjectService, logger *logrus.Logger) *ProjectHandler {
	return &ProjectHandler{Projects: projects, Logger: logger}
}

type projectRequest struct {
	Name        *string    `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string    `json:"description" binding:"omitempty,max=1000"`
	Status      *string    `json:"status" binding:"omitempty,oneof=active on_hold completed archived"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

func (r projectRequest) input() application.ProjectInput {
	in := application.ProjectInput{Name: r.Name, Description: r.Description, StartDate: r.StartDate, EndDate: r.EndDate}
	if r.Status != nil {
		s := entity.ProjectStatus(*r.Status)
		in.Status = &s
	}
	return in
}

type addMemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"omitempty,oneof=manager member viewer"`
}

type memberRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=manager member viewer"`
}

func (h *ProjectHandler) Create(c *gin.Context) {
	var req projectRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Name == nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"name": "is required"})
		return
	}
	p, err := h.Projects.Create(c.Request.Context(), actorOf(c), req.input())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, p, "project created", nil)
}

func (h *ProjectHandler) List(c *gin.Context) {
	ps, err := h.Projects.List(c.Request.Context(), actorOf(c))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, ps, "projects", gin.H{"count": len(ps)})
}

func (h *ProjectHandler) Get(c *gin.Context) {
	p, err := h.Projects.Get(c.Request.Context(), actorOf(c), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, p, "project", nil)
}

func (h *ProjectHandler) Update(c *gin.Context) {
	var req projectRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.Projects.Update(c.Request.Context(), actorOf(c), c.Param("id"), req.input())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, p, "project updated", nil)
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.Projects.Delete(c.Request.Context(), actorOf(c), c.Param("id")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true}, "project deleted", nil)
}

// AddMember POST /api/projects/:id/members; role defaults to member.
func (h *ProjectHandler) AddMember(c *gin.Context) {
	var req addMemberRequest
	if !bindJSON(c, &req) {
		return
	}
	role := entity.MemberRegular
	if req.Role != "" {
		role = entity.MemberRole(req.Role)
	}
	p, err := h.Projects.AddMember(c.Request.Context(), actorOf(c), c.Param("id"), req.UserID, role)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, p, "member added", nil)
}

func (h *ProjectHandler) UpdateMember(c *gin.Context) {
	var req memberRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.Projects.UpdateMember(c.Request.Context(), actorOf(c), c.Param("id"), c.Param("userId"), entity.MemberRole(req.Role))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, p, "member updated", nil)
}

func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	p, err := h.Projects.RemoveMember(c.Request.Context(), actorOf(c), c.Param("id"), c.Param("userId"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, p, "member removed", nil)
}

// Activity GET /api/projects/:id/activity?limit=
func (h *ProjectHandler) Activity(c *gin.Context) {
	var q struct {
		Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
	}
	if !bindQuery(c, &q) {
		return
	}
	if q.Limit == 0 {
		q.Limit = 50
	}
	items, err := h.Projects.ActivityFeed(c.Request.Context(), actorOf(c), c.Param("id"), q.Limit)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, items, "activity", nil)
}
