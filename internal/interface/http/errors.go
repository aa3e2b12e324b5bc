package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/taskhub/internal/application"
	"github.com/oksasatya/taskhub/internal/domain/entity"
	repo "github.com/oksasatya/taskhub/internal/domain/repository"
	"github.com/oksasatya/taskhub/pkg/response"
	"github.com/oksasatya/taskhub/pkg/validation"
)

var statusByError = []struct {
	err    error
	status int
}{
	{application.ErrInvalidCredentials, http.StatusUnauthorized},
	{application.ErrInvalidToken, http.StatusBadRequest},
	{application.ErrForbidden, http.StatusForbidden},
	{application.ErrNotParticipant, http.StatusForbidden},
	{application.ErrUnavailable, http.StatusServiceUnavailable},
	{application.ErrStorageUnavailable, http.StatusServiceUnavailable},
	{application.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	{application.ErrEmailTaken, http.StatusConflict},
	{application.ErrAlreadyMember, http.StatusConflict},
	{application.ErrTimerRunning, http.StatusConflict},
	{application.ErrTimerNotRunning, http.StatusConflict},
	{application.ErrRoomArchived, http.StatusConflict},
	{application.ErrOwnerImmutable, http.StatusBadRequest},
	{application.ErrNotMember, http.StatusBadRequest},
	{application.ErrSelfChat, http.StatusBadRequest},
	{application.ErrAssigneeNotFound, http.StatusBadRequest},
	{bcrypt.ErrPasswordTooLong, http.StatusBadRequest},
	{application.ErrUserNotFound, http.StatusNotFound},
	{application.ErrProjectNotFound, http.StatusNotFound},
	{application.ErrTaskNotFound, http.StatusNotFound},
	{application.ErrSubtaskNotFound, http.StatusNotFound},
	{application.ErrCommentNotFound, http.StatusNotFound},
	{application.ErrRoomNotFound, http.StatusNotFound},
	{application.ErrNotificationNotFound, http.StatusNotFound},
	{repo.ErrNotFound, http.StatusNotFound},
	{repo.ErrConflict, http.StatusConflict},
}

// respondError maps service errors to a status and writes the error envelope.
// Unknown errors are logged and reported as 500 without details.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	if ve, ok := entity.IsValidationError(err); ok {
		response.Error[any](c, http.StatusBadRequest, "validation failed", ve.Fields)
		return
	}
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			response.Error[any](c, m.status, err.Error(), nil)
			return
		}
	}
	if logger != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
		}).Error("request failed")
	}
	response.Error[any](c, http.StatusInternalServerError, "internal server error", nil)
}

// bindJSON binds the body and answers 400 with field details on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return false
	}
	return true
}

// bindQuery is bindJSON for query strings.
func bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return false
	}
	return true
}

func actorOf(c *gin.Context) application.Actor {
	return application.Actor{ID: c.GetString("userID"), Role: entity.Role(c.GetString("userRole"))}
}

type pageQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// normalized applies the listing defaults used by the services.
func (q pageQuery) normalized() (int, int) {
	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = application.DefaultPageSize
	}
	return page, limit
}

func queryBool(c *gin.Context, key string) bool {
	b, _ := strconv.ParseBool(c.Query(key))
	return b
}
