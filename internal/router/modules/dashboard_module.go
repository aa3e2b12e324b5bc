package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/taskhub/internal/interface/http"
	"github.com/oksasatya/taskhub/pkg/helpers"
)

type DashboardModule struct {
	Handler *handlers.DashboardHandler
	JWT     *helpers.JWTManager
}

func NewDashboardModule(h *handlers.DashboardHandler, jwt *helpers.JWTManager) *DashboardModule {
	return &DashboardModule{Handler: h, JWT: jwt}
}

func (m *DashboardModule) Register(rg *gin.RouterGroup) {
	protected(rg, m.JWT).GET("/dashboard", m.Handler.Get)
}
