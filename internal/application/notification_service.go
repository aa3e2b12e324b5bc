package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhub/internal/domain/entity"
	repo "github.com/oksasatya/taskhub/internal/domain/repository"
)

type NotificationService struct {
	Repo    repo.NotificationRepository
	Emitter Emitter
	Logger  *logrus.Logger
}

func NewNotificationService(r repo.NotificationRepository, emitter Emitter, logger *logrus.Logger) *NotificationService {
	if emitter == nil {
		emitter = nopEmitter{}
	}
	return &NotificationService{Repo: r, Emitter: emitter, Logger: logger}
}

// Notify stores n and pushes it to the recipient. It never fails the caller;
// notifications addressed to the sender are skipped.
func (s *NotificationService) Notify(ctx context.Context, n entity.Notification) {
	if s == nil || n.RecipientID == "" || n.RecipientID == n.SenderID {
		return
	}
	if err := s.Repo.Create(ctx, &n); err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithFields(logrus.Fields{
				"recipient_id": n.RecipientID,
				"type":         n.Type,
			}).Warn("create notification failed")
		}
		return
	}
	s.Emitter.ToUsers([]string{n.RecipientID}, "", EventNotification, n)
}

func (s *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, page, limit int) ([]*entity.Notification, int64, error) {
	page, limit = clampPage(page, limit)
	offset := (page - 1) * limit
	return s.Repo.ListByRecipient(ctx, userID, unreadOnly, offset, limit)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.Repo.CountUnread(ctx, userID)
}

func (s *NotificationService) owned(ctx context.Context, userID, id string) (*entity.Notification, error) {
	n, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, err
	}
	if n.RecipientID != userID {
		// hide other users' notifications entirely
		return nil, ErrNotificationNotFound
	}
	return n, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) (*entity.Notification, error) {
	n, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if n.Read {
		return n, nil
	}
	now := time.Now().UTC()
	if err := s.Repo.MarkRead(ctx, id, now); err != nil {
		return nil, err
	}
	n.Read, n.ReadAt = true, &now
	s.Emitter.ToUsers([]string{userID}, "", EventNotifRead, map[string]any{"ids": []string{id}})
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.Repo.MarkAllRead(ctx, userID, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.Emitter.ToUsers([]string{userID}, "", EventNotifRead, map[string]any{"all": true})
	}
	return n, nil
}

func (s *NotificationService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.Repo.Delete(ctx, id)
}
