package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhub/internal/application"
	"github.com/oksasatya/taskhub/internal/domain/entity"
	"github.com/oksasatya/taskhub/pkg/response"
)

type UserHandler struct {
	Svc      *application.UserService
	MaxBytes int64
	Logger   *logrus.Logger
}

func NewUserHandler(svc *application.UserService, maxBytes int64, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, MaxBytes: maxBytes, Logger: logger}
}

type updateProfileRequest struct {
	Name      *string `json:"name" binding:"omitempty,min=1,max=100"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,max=2048"`
}

type listUsersQuery struct {
	pageQuery
	Role string `form:"role" binding:"omitempty,oneof=user manager admin"`
	Q    string `form:"q" binding:"max=100"`
}

type setRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=user manager admin"`
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	u, err := h.Svc.GetProfile(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, u, "profile", nil)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), c.GetString("userID"), application.UpdateProfileInput{Name: req.Name, AvatarURL: req.AvatarURL})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, u, "profile updated", nil)
}

// UploadAvatar POST /api/profile/avatar (multipart field "avatar")
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	up, ok := formFile(c, "avatar", h.MaxBytes)
	if !ok {
		return
	}
	defer up.close()
	u, err := h.Svc.UploadAvatar(c.Request.Context(), c.GetString("userID"), up.Body, up.Filename, up.ContentType)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, u, "avatar updated", nil)
}

// List GET /api/users (manager/admin)
func (h *UserHandler) List(c *gin.Context) {
	var q listUsersQuery
	if !bindQuery(c, &q) {
		return
	}
	page, limit := q.normalized()
	users, total, err := h.Svc.List(c.Request.Context(), entity.Role(q.Role), q.Q, page, limit)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, users, "users", response.NewPageMeta(page, limit, total))
}

// Search GET /api/users/search?q=&size=
func (h *UserHandler) Search(c *gin.Context) {
	var q struct {
		Q    string `form:"q" binding:"max=100"`
		Size int    `form:"size" binding:"omitempty,min=1,max=50"`
	}
	if !bindQuery(c, &q) {
		return
	}
	users, err := h.Svc.Search(c.Request.Context(), q.Q, q.Size)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, users, "search results", gin.H{"count": len(users)})
}

func (h *UserHandler) Get(c *gin.Context) {
	u, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, u.Public(), "user", nil)
}

// SetRole PATCH /api/users/:id/role (admin)
func (h *UserHandler) SetRole(c *gin.Context) {
	var req setRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.Svc.SetRole(c.Request.Context(), actorOf(c), c.Param("id"), entity.Role(req.Role))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, u, "role updated", nil)
}
