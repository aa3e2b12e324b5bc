package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhub/internal/application"
	"github.com/oksasatya/taskhub/pkg/response"
)

type DashboardHandler struct {
	Dashboard *application.DashboardService
	Logger    *logrus.Logger
}

func NewDashboardHandler(d *application.DashboardService, logger *logrus.Logger) *DashboardHandler {
	return &DashboardHandler{Dashboard: d, Logger: logger}
}

func (h *DashboardHandler) Get(c *gin.Context) {
	d, err := h.Dashboard.Get(c.Request.Context(), actorOf(c))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, d, "dashboard", nil)
}
