package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/taskhub/internal/container"
	"github.com/oksasatya/taskhub/internal/interface/middleware"
	"github.com/oksasatya/taskhub/internal/realtime"
	"github.com/oksasatya/taskhub/pkg/helpers"
)

// RealtimeModule exposes the WebSocket relay at /api/ws and GET /api/presence.
// The socket route skips the rate limiters since a connection is long-lived.
type RealtimeModule struct {
	Handler *realtime.Handler
	JWT     *helpers.JWTManager
}

func NewRealtimeModule(h *realtime.Handler, jwt *helpers.JWTManager) *RealtimeModule {
	return &RealtimeModule{Handler: h, JWT: jwt}
}

func (m *RealtimeModule) Register(rg *gin.RouterGroup) {
	rg.GET("/ws", middleware.Auth(container.GetRedis(), m.JWT), m.Handler.Serve)
	protected(rg, m.JWT).GET("/presence", m.Handler.Presence)
}
