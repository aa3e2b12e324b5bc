package repository

import (
	"context"
	"time"

	"github.com/oksasatya/taskhub/internal/domain/entity"
)

type ChatRepository interface {
	CreateRoom(ctx context.Context, r *entity.ChatRoom) error
	GetRoom(ctx context.Context, id string) (*entity.ChatRoom, error)
	GetDirectRoom(ctx context.Context, key string) (*entity.ChatRoom, error)
	ListRooms(ctx context.Context, userID string, archived bool) ([]*entity.ChatRoom, error)
	UpdateRoom(ctx context.Context, r *entity.ChatRoom) error

	CreateMessage(ctx context.Context, m *entity.Message) error
	// ListMessages returns up to limit messages older than before (zero means now), newest first.
	ListMessages(ctx context.Context, roomID string, before time.Time, limit int) ([]*entity.Message, error)
	// MarkRead adds a receipt for userID to every message in the room not yet read by them.
	MarkRead(ctx context.Context, roomID, userID string, at time.Time) (int64, error)
	CountUnread(ctx context.Context, roomID, userID string) (int64, error)
}
