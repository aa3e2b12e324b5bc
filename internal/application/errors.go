package application

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrForbidden          = errors.New("forbidden")
	ErrUnavailable        = errors.New("service unavailable")

	ErrProjectNotFound = errors.New("project not found")
	ErrAlreadyMember   = errors.New("user is already a member")
	ErrNotMember       = errors.New("user is not a member")
	ErrOwnerImmutable  = errors.New("the project owner cannot be removed or demoted")

	ErrTaskNotFound     = errors.New("task not found")
	ErrSubtaskNotFound  = errors.New("subtask not found")
	ErrCommentNotFound  = errors.New("comment not found")
	ErrTimerRunning     = errors.New("timer already running")
	ErrTimerNotRunning  = errors.New("timer is not running")
	ErrAssigneeNotFound = errors.New("assignee not found")

	ErrRoomNotFound   = errors.New("chat room not found")
	ErrNotParticipant = errors.New("not a participant of this room")
	ErrRoomArchived   = errors.New("chat room is archived")
	ErrSelfChat       = errors.New("cannot open a direct room with yourself")

	ErrNotificationNotFound = errors.New("notification not found")

	ErrStorageUnavailable = errors.New("file storage not configured")
	ErrFileTooLarge       = errors.New("file too large")
)
