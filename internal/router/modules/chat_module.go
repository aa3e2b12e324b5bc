package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/taskhub/internal/interface/http"
	"github.com/oksasatya/taskhub/pkg/helpers"
)

type ChatModule struct {
	Handler *handlers.ChatHandler
	JWT     *helpers.JWTManager
}

func NewChatModule(h *handlers.ChatHandler, jwt *helpers.JWTManager) *ChatModule {
	return &ChatModule{Handler: h, JWT: jwt}
}

func (m *ChatModule) Register(rg *gin.RouterGroup) {
	g := protected(rg, m.JWT).Group("/chat/rooms")
	{
		g.GET("", m.Handler.ListRooms)
		g.POST("", m.Handler.CreateRoom)
		g.POST("/direct", m.Handler.Direct)
		g.GET("/:id", m.Handler.GetRoom)
		g.GET("/:id/messages", m.Handler.Messages)
		g.POST("/:id/messages", m.Handler.Send)
		g.POST("/:id/read", m.Handler.MarkRead)
		g.PATCH("/:id/archive", m.Handler.Archive)
	}
}
