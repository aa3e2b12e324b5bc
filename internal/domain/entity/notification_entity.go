package entity

import "time"

type NotificationType string

const (
	NotifyTaskAssigned   NotificationType = "task_assigned"
	NotifyTaskUpdated    NotificationType = "task_updated"
	NotifyTaskComment    NotificationType = "task_comment"
	NotifyTaskDue        NotificationType = "task_due"
	NotifyProjectInvite  NotificationType = "project_invite"
	NotifyProjectUpdated NotificationType = "project_updated"
	NotifyChatMessage    NotificationType = "chat_message"
	NotifySystem         NotificationType = "system"
)

type Notification struct {
	ID          string           `json:"id" bson:"_id"`
	RecipientID string           `json:"recipient_id" bson:"recipient_id" validate:"required"`
	Type        NotificationType `json:"type" bson:"type" validate:"required,oneof=task_assigned task_updated task_comment task_due project_invite project_updated chat_message system"`
	Title       string           `json:"title" bson:"title" validate:"required,max=200"`
	Message     string           `json:"message" bson:"message" validate:"max=1000"`
	SenderID    string           `json:"sender_id,omitempty" bson:"sender_id,omitempty"`
	TaskID      string           `json:"task_id,omitempty" bson:"task_id,omitempty"`
	ProjectID   string           `json:"project_id,omitempty" bson:"project_id,omitempty"`
	RoomID      string           `json:"room_id,omitempty" bson:"room_id,omitempty"`
	Read        bool             `json:"read" bson:"read"`
	ReadAt      *time.Time       `json:"read_at,omitempty" bson:"read_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at" bson:"created_at"`
}

func (n *Notification) Validate() error { return validateStruct(n) }
