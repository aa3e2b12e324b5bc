package realtime

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/oksasatya/taskhub/internal/domain/entity"
	"github.com/oksasatya/taskhub/pkg/response"
)

// Handler upgrades authenticated requests to relay connections.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, allowedOrigins []string) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

// checkOrigin accepts requests without an Origin header (non-browser clients)
// and browsers from the CORS allow list.
func checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// Serve expects the auth middleware to have set userID and userRole.
func (h *Handler) Serve(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		response.Error[any](c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader already replied
		return
	}
	client := newClient(h.hub, conn, userID, entity.Role(c.GetString("userRole")))
	if err := h.hub.Register(client); err != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}
	go client.writePump()
	go client.readPump()
}

// Presence lists online user ids.
func (h *Handler) Presence(c *gin.Context) {
	ids, err := h.hub.Online(c.Request.Context())
	if err != nil {
		response.Error[any](c, http.StatusServiceUnavailable, "presence unavailable", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user_ids": ids}, "online users", nil)
}
