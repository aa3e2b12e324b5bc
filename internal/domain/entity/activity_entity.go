package entity

import "time"

// Activity is an append-only audit record of something a user did.
type Activity struct {
	ID        int64          `json:"id"`
	ActorID   string         `json:"actor_id"`
	ProjectID string         `json:"project_id,omitempty"`
	TaskID    string         `json:"task_id,omitempty"`
	Action    string         `json:"action"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
