package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhub/internal/application"
	"github.com/oksasatya/taskhub/pkg/response"
)

type NotificationHandler struct {
	Notifications *application.NotificationService
	Logger        *logrus.Logger
}

func NewNotificationHandler(n *application.NotificationService, logger *logrus.Logger) *NotificationHandler {
	return &NotificationHandler{Notifications: n, Logger: logger}
}

// List GET /api/notifications?unread=true&page=&limit=
func (h *NotificationHandler) List(c *gin.Context) {
	var q struct {
		pageQuery
		Unread bool `form:"unread"`
	}
	if !bindQuery(c, &q) {
		return
	}
	page, limit := q.normalized()
	items, total, err := h.Notifications.List(c.Request.Context(), c.GetString("userID"), q.Unread, page, limit)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, items, "notifications", response.NewPageMeta(page, limit, total))
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	n, err := h.Notifications.UnreadCount(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"count": n}, "unread count", nil)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	n, err := h.Notifications.MarkRead(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, n, "notification read", nil)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.Notifications.MarkAllRead(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": n}, "all notifications read", nil)
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	if err := h.Notifications.Delete(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true}, "notification deleted", nil)
}
