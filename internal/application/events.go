package application

// Relay events emitted by services.
const (
	EventTaskCreated    = "task:created"
	EventTaskUpdated    = "task:updated"
	EventTaskDeleted    = "task:deleted"
	EventTaskAssigned   = "task:assigned"
	EventCommentNew     = "comment:new"
	EventCommentUpdated = "comment:updated"
	EventCommentDeleted = "comment:deleted"
	EventProjectUpdate  = "project:updated"
	EventMemberAdded    = "project:member_added"
	EventMemberRemoved  = "project:member_removed"
	EventNotification   = "notification:new"
	EventNotifRead      = "notification:read"

	EventChatMessage = "chat:message"
	EventChatRead    = "chat:read"
	EventChatRoom    = "chat:room"
)

// ProjectRoom and UserRoom name relay rooms.
func ProjectRoom(id string) string { return "project:" + id }
func UserRoom(id string) string    { return "user:" + id }
