package entity

import (
	"sort"
	"strings"
	"time"
)

type RoomType string

const (
	RoomDirect  RoomType = "direct"
	RoomGroup   RoomType = "group"
	RoomProject RoomType = "project"
)

type ChatRoom struct {
	ID            string     `json:"id" bson:"_id"`
	Name          string     `json:"name" bson:"name" validate:"max=100"`
	Type          RoomType   `json:"type" bson:"type" validate:"required,oneof=direct group project"`
	Participants  []string   `json:"participants" bson:"participants" validate:"min=1,max=500,dive,required"`
	ProjectID     string     `json:"project_id,omitempty" bson:"project_id,omitempty"`
	CreatedBy     string     `json:"created_by" bson:"created_by" validate:"required"`
	DirectKey     string     `json:"-" bson:"direct_key,omitempty"`
	LastMessage   string     `json:"last_message,omitempty" bson:"last_message,omitempty" validate:"max=200"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty" bson:"last_message_at,omitempty"`
	IsArchived    bool       `json:"is_archived" bson:"is_archived"`
	CreatedAt     time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" bson:"updated_at"`
}

func (r *ChatRoom) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	if r.Type == RoomDirect && len(r.Participants) != 2 {
		return fieldError("participants", "direct rooms have exactly 2 participants")
	}
	return nil
}

func (r *ChatRoom) HasParticipant(userID string) bool {
	for _, p := range r.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Others returns the participants except userID.
func (r *ChatRoom) Others(userID string) []string {
	out := make([]string, 0, len(r.Participants))
	for _, p := range r.Participants {
		if p != userID {
			out = append(out, p)
		}
	}
	return out
}

// DirectRoomKey identifies the direct room of an unordered pair of users.
func DirectRoomKey(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, ":")
}

type ReadReceipt struct {
	UserID string    `json:"user_id" bson:"user_id" validate:"required"`
	ReadAt time.Time `json:"read_at" bson:"read_at"`
}

type Message struct {
	ID          string        `json:"id" bson:"_id"`
	RoomID      string        `json:"room_id" bson:"room_id" validate:"required"`
	SenderID    string        `json:"sender_id" bson:"sender_id" validate:"required"`
	Content     string        `json:"content" bson:"content" validate:"max=2000"`
	ClientID    string        `json:"client_id,omitempty" bson:"client_id,omitempty" validate:"max=64"`
	Attachments []Attachment  `json:"attachments" bson:"attachments" validate:"max=10,dive"`
	ReadBy      []ReadReceipt `json:"read_by" bson:"read_by" validate:"dive"`
	CreatedAt   time.Time     `json:"created_at" bson:"created_at"`
	EditedAt    *time.Time    `json:"edited_at,omitempty" bson:"edited_at,omitempty"`
}

func (m *Message) Validate() error {
	if err := validateStruct(m); err != nil {
		return err
	}
	if strings.TrimSpace(m.Content) == "" && len(m.Attachments) == 0 {
		return fieldError("content", "is required")
	}
	return nil
}

func (m *Message) ReadByUser(userID string) bool {
	if m.SenderID == userID {
		return true
	}
	for _, r := range m.ReadBy {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// Preview is the truncated content stored on the room as last message.
func (m *Message) Preview() string {
	c := strings.TrimSpace(m.Content)
	if c == "" && len(m.Attachments) > 0 {
		return "[attachment] " + m.Attachments[0].Filename
	}
	r := []rune(c)
	if len(r) > 200 {
		return string(r[:197]) + "..."
	}
	return c
}
