package modules

import (
	"expvar"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/taskhub/internal/container"
	"github.com/oksasatya/taskhub/internal/interface/middleware"
	"github.com/oksasatya/taskhub/internal/realtime"
)

var publishHubOnce sync.Once

// DebugModule serves expvar at /api/debug/vars, including the relay's counters
// under "realtime". Private addresses bypass the limiter.
type DebugModule struct {
	Hub *realtime.Hub
}

func NewDebugModule(hub *realtime.Hub) *DebugModule { return &DebugModule{Hub: hub} }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	if m.Hub != nil {
		hub := m.Hub
		// expvar.Publish panics on a duplicate name
		publishHubOnce.Do(func() {
			expvar.Publish("realtime", expvar.Func(func() any { return hub.Stats() }))
		})
	}
	rl := middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
}
