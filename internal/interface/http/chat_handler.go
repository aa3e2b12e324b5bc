package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhub/internal/application"
	"github.com/oksasatya/taskhub/internal/domain/entity"
	"github.com/oksasatya/taskhub/pkg/response"
)

type ChatHandler struct {
	Chat   *application.ChatService
	Logger *logrus.Logger
}

func NewChatHandler(chat *application.ChatService, logger *logrus.Logger) *ChatHandler {
	return &ChatHandler{Chat: chat, Logger: logger}
}

type directRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type roomRequest struct {
	Name         string   `json:"name" binding:"max=100"`
	Participants []string `json:"participants" binding:"omitempty,max=500,dive,required"`
	ProjectID    string   `json:"project_id"`
}

type messageRequest struct {
	Content     string              `json:"content" binding:"max=2000"`
	ClientID    string              `json:"client_id" binding:"max=64"`
	Attachments []entity.Attachment `json:"attachments" binding:"omitempty,max=10"`
}

type archiveRequest struct {
	Archived *bool `json:"archived" binding:"required"`
}

// ListRooms GET /api/chat/rooms?archived=
func (h *ChatHandler) ListRooms(c *gin.Context) {
	rooms, err := h.Chat.ListRooms(c.Request.Context(), actorOf(c), queryBool(c, "archived"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, rooms, "rooms", gin.H{"count": len(rooms)})
}

// Direct POST /api/chat/rooms/direct answers 201 only when the room is new.
func (h *ChatHandler) Direct(c *gin.Context) {
	var req directRequest
	if !bindJSON(c, &req) {
		return
	}
	room, created, err := h.Chat.GetOrCreateDirect(c.Request.Context(), actorOf(c), req.UserID)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.Success(c, status, room, "direct room", nil)
}

func (h *ChatHandler) CreateRoom(c *gin.Context) {
	var req roomRequest
	if !bindJSON(c, &req) {
		return
	}
	room, err := h.Chat.CreateRoom(c.Request.Context(), actorOf(c), application.RoomInput{
		Name:         req.Name,
		Participants: req.Participants,
		ProjectID:    req.ProjectID,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, room, "room created", nil)
}

func (h *ChatHandler) GetRoom(c *gin.Context) {
	room, err := h.Chat.GetRoom(c.Request.Context(), actorOf(c), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, room, "room", nil)
}

// Messages GET /api/chat/rooms/:id/messages?before=RFC3339&limit=
func (h *ChatHandler) Messages(c *gin.Context) {
	var q struct {
		Before time.Time `form:"before" time_format:"2006-01-02T15:04:05Z07:00"`
		Limit  int       `form:"limit" binding:"omitempty,min=1,max=100"`
	}
	if !bindQuery(c, &q) {
		return
	}
	msgs, err := h.Chat.ListMessages(c.Request.Context(), actorOf(c), c.Param("id"), q.Before, q.Limit)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	meta := gin.H{"count": len(msgs)}
	if len(msgs) > 0 {
		meta["next_before"] = msgs[0].CreatedAt
	}
	response.Success(c, http.StatusOK, msgs, "messages", meta)
}

// Send POST /api/chat/rooms/:id/messages delivers to every connection of the participants.
func (h *ChatHandler) Send(c *gin.Context) {
	var req messageRequest
	if !bindJSON(c, &req) {
		return
	}
	msg, err := h.Chat.Send(c.Request.Context(), actorOf(c), application.SendInput{
		RoomID:      c.Param("id"),
		Content:     req.Content,
		ClientID:    req.ClientID,
		Attachments: req.Attachments,
	}, "")
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, msg, "message sent", nil)
}

func (h *ChatHandler) MarkRead(c *gin.Context) {
	n, err := h.Chat.MarkRead(c.Request.Context(), actorOf(c), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": n}, "room read", nil)
}

func (h *ChatHandler) Archive(c *gin.Context) {
	var req archiveRequest
	if !bindJSON(c, &req) {
		return
	}
	room, err := h.Chat.Archive(c.Request.Context(), actorOf(c), c.Param("id"), *req.Archived)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, room, "room updated", nil)
}
