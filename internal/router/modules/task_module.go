package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/taskhub/internal/interface/http"
	"github.com/oksasatya/taskhub/pkg/helpers"
)

// TaskModule serves tasks with their subtasks, timer, comments and attachments.
type TaskModule struct {
	Handler *handlers.TaskHandler
	Files   *handlers.FileHandler
	JWT     *helpers.JWTManager
}

func NewTaskModule(h *handlers.TaskHandler, files *handlers.FileHandler, jwt *helpers.JWTManager) *TaskModule {
	return &TaskModule{Handler: h, Files: files, JWT: jwt}
}

func (m *TaskModule) Register(rg *gin.RouterGroup) {
	g := protected(rg, m.JWT).Group("/tasks")
	{
		g.POST("", m.Handler.Create)
		g.GET("", m.Handler.List)
		g.GET("/search", m.Handler.Search)
		g.GET("/:id", m.Handler.Get)
		g.PUT("/:id", m.Handler.Update)
		g.DELETE("/:id", m.Handler.Delete)
		g.PATCH("/:id/status", m.Handler.UpdateStatus)

		g.POST("/:id/subtasks", m.Handler.AddSubtask)
		g.PATCH("/:id/subtasks/:sid", m.Handler.UpdateSubtask)
		g.DELETE("/:id/subtasks/:sid", m.Handler.DeleteSubtask)

		g.POST("/:id/timer/start", m.Handler.StartTimer)
		g.POST("/:id/timer/stop", m.Handler.StopTimer)
		g.POST("/:id/time", m.Handler.LogTime)

		g.GET("/:id/comments", m.Handler.ListComments)
		g.POST("/:id/comments", m.Handler.AddComment)
		g.PUT("/:id/comments/:cid", m.Handler.UpdateComment)
		g.DELETE("/:id/comments/:cid", m.Handler.DeleteComment)

		g.POST("/:id/attachments", m.Files.AttachToTask)
	}
}
