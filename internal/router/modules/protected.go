package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/taskhub/internal/container"
	"github.com/oksasatya/taskhub/internal/interface/middleware"
	"github.com/oksasatya/taskhub/pkg/helpers"
)

// protected returns a group behind Auth with the per-IP and per-user limits
// shared by every authenticated module.
func protected(rg *gin.RouterGroup, jwt *helpers.JWTManager) *gin.RouterGroup {
	rdb := container.GetRedis()
	g := rg.Group("/")
	g.Use(
		middleware.Auth(rdb, jwt),
		middleware.RateLimit(rdb, 600, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(rdb, 300, time.Minute, middleware.KeyByUserID(), nil),
	)
	return g
}
