package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/taskhub/internal/interface/http"
	"github.com/oksasatya/taskhub/pkg/helpers"
)

type ProjectModule struct {
	Handler *handlers.ProjectHandler
	JWT     *helpers.JWTManager
}

func NewProjectModule(h *handlers.ProjectHandler, jwt *helpers.JWTManager) *ProjectModule {
	return &ProjectModule{Handler: h, JWT: jwt}
}

func (m *ProjectModule) Register(rg *gin.RouterGroup) {
	g := protected(rg, m.JWT).Group("/projects")
	{
		g.POST("", m.Handler.Create)
		g.GET("", m.Handler.List)
		g.GET("/:id", m.Handler.Get)
		g.PUT("/:id", m.Handler.Update)
		g.DELETE("/:id", m.Handler.Delete)
		g.POST("/:id/members", m.Handler.AddMember)
		g.PATCH("/:id/members/:userId", m.Handler.UpdateMember)
		g.DELETE("/:id/members/:userId", m.Handler.RemoveMember)
		g.GET("/:id/activity", m.Handler.Activity)
	}
}
