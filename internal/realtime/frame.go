// Package realtime is the WebSocket relay: rooms, chat delivery, typing and presence.
package realtime

import (
	"encoding/json"
	"time"

	"github.com/oksasatya/taskhub/internal/domain/entity"
)

// Socket events handled or produced only by the relay itself. Domain events
// come from the application package.
const (
	EventChatMessage  = "chat:message"
	EventChatAck      = "chat:ack"
	EventChatError    = "chat:error"
	EventChatTyping   = "chat:typing"
	EventChatStop     = "chat:stop-typing"
	EventChatRead     = "chat:read"
	EventProjectJoin  = "project:join"
	EventProjectLeave = "project:leave"
	EventPing         = "ping"
	EventPong         = "pong"
	EventError        = "error"
	EventSnapshot     = "presence:snapshot"
	EventUserOnline   = "user:online"
	EventUserOffline  = "user:offline"
)

// broadcastRoom addresses every connection.
const broadcastRoom = "*"

// inbound is a frame read from a client.
type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// outbound is a frame written to a client.
type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func encode(event string, data any) ([]byte, error) {
	if data == nil {
		data = struct{}{}
	}
	return json.Marshal(outbound{Event: event, Data: data})
}

type chatMessageIn struct {
	RoomID      string              `json:"room_id"`
	Content     string              `json:"content"`
	ClientID    string              `json:"client_id"`
	Attachments []entity.Attachment `json:"attachments"`
}

type roomIn struct {
	RoomID string `json:"room_id"`
}

type projectIn struct {
	ProjectID string `json:"project_id"`
}

type ackOut struct {
	ClientID string          `json:"client_id"`
	Message  *entity.Message `json:"message"`
}

type chatErrorOut struct {
	ClientID string `json:"client_id,omitempty"`
	RoomID   string `json:"room_id,omitempty"`
	Error    string `json:"error"`
}

type typingOut struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
	Typing bool   `json:"typing"`
}

type presenceOut struct {
	UserID   string     `json:"user_id"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

type snapshotOut struct {
	UserIDs []string `json:"user_ids"`
}

type errorOut struct {
	Message string `json:"message"`
}
