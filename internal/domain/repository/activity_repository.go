package repository

import (
	"context"

	"github.com/oksasatya/taskhub/internal/domain/entity"
)

// ActivityFilter selects log entries. With ProjectIDs set, an entry matches when
// it belongs to one of them or was made by ActorID.
type ActivityFilter struct {
	ProjectID  string
	TaskID     string
	ActorID    string
	ProjectIDs []string
	Limit      int
}

// ActivityRepository stores the append-only activity log.
type ActivityRepository interface {
	Insert(ctx context.Context, a *entity.Activity) error
	List(ctx context.Context, f ActivityFilter) ([]*entity.Activity, error)
}
