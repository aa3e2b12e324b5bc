package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/taskhub/internal/container"
	handlers "github.com/oksasatya/taskhub/internal/interface/http"
	"github.com/oksasatya/taskhub/internal/interface/middleware"
	"github.com/oksasatya/taskhub/pkg/helpers"
)

type FileModule struct {
	Handler *handlers.FileHandler
	JWT     *helpers.JWTManager
}

func NewFileModule(h *handlers.FileHandler, jwt *helpers.JWTManager) *FileModule {
	return &FileModule{Handler: h, JWT: jwt}
}

func (m *FileModule) Register(rg *gin.RouterGroup) {
	uploads := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByUserID(), nil)
	protected(rg, m.JWT).POST("/files", uploads, m.Handler.Upload)
}
