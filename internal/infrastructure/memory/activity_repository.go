package memory

import (
	"context"
	"time"

	"github.com/oksasatya/taskhub/internal/domain/entity"
	"github.com/oksasatya/taskhub/internal/domain/repository"
)

type ActivityRepository struct {
	db *DB
}

func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Insert(ctx context.Context, a *entity.Activity) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	a.ID = int64(len(r.db.activities) + 1)
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	c := *a
	r.db.activities = append(r.db.activities, &c)
	return nil
}

// List returns the newest entries first.
func (r *ActivityRepository) List(ctx context.Context, f repository.ActivityFilter) ([]*entity.Activity, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	res := []*entity.Activity{}
	for i := len(r.db.activities) - 1; i >= 0; i-- {
		a := r.db.activities[i]
		if f.ProjectID != "" && a.ProjectID != f.ProjectID {
			continue
		}
		if f.TaskID != "" && a.TaskID != f.TaskID {
			continue
		}
		if len(f.ProjectIDs) > 0 {
			if !contains(f.ProjectIDs, a.ProjectID) && (f.ActorID == "" || a.ActorID != f.ActorID) {
				continue
			}
		} else if f.ActorID != "" && a.ActorID != f.ActorID {
			continue
		}
		c := *a
		res = append(res, &c)
		if f.Limit > 0 && len(res) >= f.Limit {
			break
		}
	}
	return res, nil
}

var _ repository.ActivityRepository = (*ActivityRepository)(nil)
