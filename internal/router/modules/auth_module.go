package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/taskhub/internal/container"
	handlers "github.com/oksasatya/taskhub/internal/interface/http"
	"github.com/oksasatya/taskhub/internal/interface/middleware"
	"github.com/oksasatya/taskhub/pkg/helpers"
)

// AuthModule wires registration, the cookie session and verify/reset flows.
// Public: POST /api/auth/register, /api/login, /api/refresh,
// /api/auth/verify/confirm, /api/auth/reset/init, /api/auth/reset/confirm
// Protected: POST /api/logout, /api/auth/verify/init
type AuthModule struct {
	Handler *handlers.AuthHandler
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	perIP := func(max int) gin.HandlerFunc {
		return middleware.RateLimit(rdb, max, time.Minute, middleware.KeyByIPAndPath(), nil)
	}

	rg.POST("/auth/register", perIP(10), m.Handler.Register)
	rg.POST("/login", perIP(10), m.Handler.Login)
	rg.POST("/refresh", perIP(60), m.Handler.Refresh)
	rg.POST("/auth/verify/confirm", perIP(30), m.Handler.VerifyConfirm)
	rg.POST("/auth/reset/init", perIP(5), m.Handler.ResetInit)
	rg.POST("/auth/reset/confirm", perIP(30), m.Handler.ResetConfirm)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(rdb, m.JWT))
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.POST("/auth/verify/init", middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByUserID(), nil), m.Handler.VerifyInit)
	}
}
