package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/taskhub/internal/interface/http"
	"github.com/oksasatya/taskhub/pkg/helpers"
)

type NotificationModule struct {
	Handler *handlers.NotificationHandler
	JWT     *helpers.JWTManager
}

func NewNotificationModule(h *handlers.NotificationHandler, jwt *helpers.JWTManager) *NotificationModule {
	return &NotificationModule{Handler: h, JWT: jwt}
}

func (m *NotificationModule) Register(rg *gin.RouterGroup) {
	g := protected(rg, m.JWT).Group("/notifications")
	{
		g.GET("", m.Handler.List)
		g.GET("/unread-count", m.Handler.UnreadCount)
		g.PATCH("/read-all", m.Handler.MarkAllRead)
		g.PATCH("/:id/read", m.Handler.MarkRead)
		g.DELETE("/:id", m.Handler.Delete)
	}
}
