package application

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhub/internal/domain/entity"
	repo "github.com/oksasatya/taskhub/internal/domain/repository"
)

// ActivityService appends to and reads the activity log. A nil repository
// disables the log.
type ActivityService struct {
	Repo   repo.ActivityRepository
	Logger *logrus.Logger
}

func NewActivityService(r repo.ActivityRepository, logger *logrus.Logger) *ActivityService {
	return &ActivityService{Repo: r, Logger: logger}
}

// Record is best-effort: failures are logged and swallowed.
func (s *ActivityService) Record(ctx context.Context, a entity.Activity) {
	if s == nil || s.Repo == nil {
		return
	}
	if err := s.Repo.Insert(ctx, &a); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{
			"action":   a.Action,
			"actor_id": a.ActorID,
		}).Warn("record activity failed")
	}
}

func (s *ActivityService) List(ctx context.Context, f repo.ActivityFilter) ([]*entity.Activity, error) {
	if s == nil || s.Repo == nil {
		return []*entity.Activity{}, nil
	}
	return s.Repo.List(ctx, f)
}
