package memory

import (
	"context"
	"sort"
	"time"

	"github.com/oksasatya/taskhub/internal/domain/entity"
	"github.com/oksasatya/taskhub/internal/domain/repository"
)

type NotificationRepository struct {
	db *DB
}

func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	n.ID = newID()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	r.db.notifications[n.ID] = cloneNotification(n)
	return nil
}

func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if n, ok := r.db.notifications[id]; ok {
		return cloneNotification(n), nil
	}
	return nil, repository.ErrNotFound
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, offset, limit int) ([]*entity.Notification, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var res []*entity.Notification
	for _, n := range r.db.notifications {
		if n.RecipientID != recipientID || (unreadOnly && n.Read) {
			continue
		}
		res = append(res, cloneNotification(n))
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return page(res, offset, limit), int64(len(res)), nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var c int64
	for _, n := range r.db.notifications {
		if n.RecipientID == recipientID && !n.Read {
			c++
		}
	}
	return c, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id string, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	n, ok := r.db.notifications[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !n.Read {
		n.Read = true
		n.ReadAt = &at
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID string, at time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var c int64
	for _, n := range r.db.notifications {
		if n.RecipientID == recipientID && !n.Read {
			n.Read = true
			ts := at
			n.ReadAt = &ts
			c++
		}
	}
	return c, nil
}

func (r *NotificationRepository) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.notifications[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.db.notifications, id)
	return nil
}

var _ repository.NotificationRepository = (*NotificationRepository)(nil)
