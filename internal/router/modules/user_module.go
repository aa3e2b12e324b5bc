package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/taskhub/internal/domain/entity"
	handlers "github.com/oksasatya/taskhub/internal/interface/http"
	"github.com/oksasatya/taskhub/internal/interface/middleware"
	"github.com/oksasatya/taskhub/pkg/helpers"
)

// UserModule: profile for everyone, directory for managers, roles for admins.
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := protected(rg, m.JWT)
	{
		auth.GET("/profile", m.Handler.GetProfile)
		auth.PUT("/profile", m.Handler.UpdateProfile)
		auth.POST("/profile/avatar", m.Handler.UploadAvatar)

		auth.GET("/users/search", m.Handler.Search)
		auth.GET("/users/:id", m.Handler.Get)
		auth.GET("/users", middleware.RequireRole(entity.RoleManager, entity.RoleAdmin), m.Handler.List)
		auth.PATCH("/users/:id/role", middleware.RequireRole(entity.RoleAdmin), m.Handler.SetRole)
	}
}
