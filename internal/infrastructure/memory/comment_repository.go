package memory

import (
	"context"
	"sort"
	"time"

	"github.com/oksasatya/taskhub/internal/domain/entity"
	"github.com/oksasatya/taskhub/internal/domain/repository"
)

type CommentRepository struct {
	db *DB
}

func NewCommentRepository(db *DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, c *entity.Comment) error {
	if err := c.Validate(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := time.Now().UTC()
	c.ID = newID()
	c.CreatedAt, c.UpdatedAt = now, now
	r.db.comments[c.ID] = cloneComment(c)
	return nil
}

func (r *CommentRepository) GetByID(ctx context.Context, id string) (*entity.Comment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if c, ok := r.db.comments[id]; ok {
		return cloneComment(c), nil
	}
	return nil, repository.ErrNotFound
}

// ListByTask returns comments oldest first.
func (r *CommentRepository) ListByTask(ctx context.Context, taskID string, offset, limit int) ([]*entity.Comment, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var res []*entity.Comment
	for _, c := range r.db.comments {
		if c.TaskID == taskID {
			res = append(res, cloneComment(c))
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return page(res, offset, limit), int64(len(res)), nil
}

func (r *CommentRepository) Update(ctx context.Context, c *entity.Comment) error {
	if err := c.Validate(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.comments[c.ID]; !ok {
		return repository.ErrNotFound
	}
	c.UpdatedAt = time.Now().UTC()
	r.db.comments[c.ID] = cloneComment(c)
	return nil
}

func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.comments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.db.comments, id)
	return nil
}

func (r *CommentRepository) DeleteByTask(ctx context.Context, taskID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for id, c := range r.db.comments {
		if c.TaskID == taskID {
			delete(r.db.comments, id)
		}
	}
	return nil
}

var _ repository.CommentRepository = (*CommentRepository)(nil)
