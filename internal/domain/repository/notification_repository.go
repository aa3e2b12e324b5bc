package repository

import (
	"context"
	"time"

	"github.com/oksasatya/taskhub/internal/domain/entity"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	GetByID(ctx context.Context, id string) (*entity.Notification, error)
	ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, offset, limit int) ([]*entity.Notification, int64, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	MarkRead(ctx context.Context, id string, at time.Time) error
	MarkAllRead(ctx context.Context, recipientID string, at time.Time) (int64, error)
	Delete(ctx context.Context, id string) error
}
