package realtime

import (
	"encoding/json"
	"errors"

	"github.com/oksasatya/taskhub/internal/application"
	"github.com/oksasatya/taskhub/internal/domain/entity"
)

// handle runs one inbound frame on the client's read goroutine, so frames of
// a connection are processed in order.
func (h *Hub) handle(c *Client, in inbound) {
	actor := application.Actor{ID: c.userID, Role: c.role}
	switch in.Event {
	case EventPing:
		c.emit(EventPong, nil)
	case EventChatMessage:
		h.onChatMessage(c, actor, in.Data)
	case EventChatTyping:
		h.onTyping(c, actor, in.Data)
	case EventChatStop:
		var req roomIn
		if json.Unmarshal(in.Data, &req) == nil && req.RoomID != "" {
			h.typing.Stop(req.RoomID, c.userID)
		}
	case EventChatRead:
		h.onRead(c, actor, in.Data)
	case EventProjectJoin:
		h.onJoin(c, actor, in.Data)
	case EventProjectLeave:
		var req projectIn
		if json.Unmarshal(in.Data, &req) == nil && req.ProjectID != "" {
			h.leave(c, application.ProjectRoom(req.ProjectID))
		}
	default:
		c.emit(EventError, errorOut{Message: "unknown event " + in.Event})
	}
}

func (h *Hub) onChatMessage(c *Client, actor application.Actor, data json.RawMessage) {
	var req chatMessageIn
	if err := json.Unmarshal(data, &req); err != nil {
		c.emit(EventChatError, chatErrorOut{Error: "invalid payload"})
		return
	}
	if h.chat == nil {
		c.emit(EventChatError, chatErrorOut{ClientID: req.ClientID, RoomID: req.RoomID, Error: "chat unavailable"})
		return
	}
	ctx, cancel := h.opCtx()
	defer cancel()
	msg, err := h.chat.Send(ctx, actor, application.SendInput{
		RoomID:      req.RoomID,
		Content:     req.Content,
		ClientID:    req.ClientID,
		Attachments: req.Attachments,
	}, c.id)
	if err != nil {
		c.emit(EventChatError, chatErrorOut{ClientID: req.ClientID, RoomID: req.RoomID, Error: h.clientMessage(err)})
		return
	}
	c.emit(EventChatAck, ackOut{ClientID: req.ClientID, Message: msg})
}

func (h *Hub) onTyping(c *Client, actor application.Actor, data json.RawMessage) {
	var req roomIn
	if err := json.Unmarshal(data, &req); err != nil || req.RoomID == "" || h.chat == nil {
		return
	}
	ctx, cancel := h.opCtx()
	defer cancel()
	participants, err := h.chat.Participants(ctx, actor, req.RoomID)
	if err != nil {
		c.emit(EventChatError, chatErrorOut{RoomID: req.RoomID, Error: h.clientMessage(err)})
		return
	}
	others := make([]string, 0, len(participants))
	for _, id := range participants {
		if id != c.userID {
			others = append(others, id)
		}
	}
	h.typing.Start(req.RoomID, c.userID, others)
}

func (h *Hub) onRead(c *Client, actor application.Actor, data json.RawMessage) {
	var req roomIn
	if err := json.Unmarshal(data, &req); err != nil || req.RoomID == "" || h.chat == nil {
		return
	}
	ctx, cancel := h.opCtx()
	defer cancel()
	if _, err := h.chat.MarkRead(ctx, actor, req.RoomID); err != nil {
		c.emit(EventChatError, chatErrorOut{RoomID: req.RoomID, Error: h.clientMessage(err)})
	}
}

func (h *Hub) onJoin(c *Client, actor application.Actor, data json.RawMessage) {
	var req projectIn
	if err := json.Unmarshal(data, &req); err != nil || req.ProjectID == "" {
		c.emit(EventError, errorOut{Message: "project_id is required"})
		return
	}
	if !actor.IsAdmin() {
		if h.projects == nil {
			c.emit(EventError, errorOut{Message: "projects unavailable"})
			return
		}
		ctx, cancel := h.opCtx()
		defer cancel()
		ok, err := h.projects.IsMember(ctx, c.userID, req.ProjectID)
		if err != nil || !ok {
			c.emit(EventError, errorOut{Message: "not a member of this project"})
			return
		}
	}
	h.join(c, application.ProjectRoom(req.ProjectID))
}

var clientErrors = []error{
	application.ErrRoomNotFound,
	application.ErrNotParticipant,
	application.ErrRoomArchived,
	application.ErrForbidden,
	application.ErrProjectNotFound,
}

// clientMessage hides internal failures from the socket.
func (h *Hub) clientMessage(err error) string {
	if ve, ok := entity.IsValidationError(err); ok {
		return ve.Error()
	}
	for _, known := range clientErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	h.logger.WithError(err).Error("realtime handler failed")
	return "internal error"
}
