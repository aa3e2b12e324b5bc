package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/oksasatya/taskhub/internal/domain/entity"
	"github.com/oksasatya/taskhub/internal/domain/repository"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrConflict
		}
	}
	now := time.Now().UTC()
	u.ID = newID()
	u.Email = strings.ToLower(u.Email)
	u.CreatedAt, u.UpdatedAt = now, now
	r.db.users[u.ID] = cloneUser(u)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if u, ok := r.db.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) GetMany(ctx context.Context, ids []string) ([]*entity.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]*entity.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.db.users[id]; ok {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (r *UserRepository) List(ctx context.Context, f repository.UserFilter) ([]*entity.User, int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var res []*entity.User
	for _, u := range r.db.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Query != "" && !containsFold(u.Name, f.Query) && !containsFold(u.Email, f.Query) {
			continue
		}
		res = append(res, cloneUser(u))
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return page(res, f.Offset, f.Limit), int64(len(res)), nil
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	for _, existing := range r.db.users {
		if existing.ID != u.ID && strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrConflict
		}
	}
	u.UpdatedAt = time.Now().UTC()
	r.db.users[u.ID] = cloneUser(u)
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Password = hash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *UserRepository) SetVerified(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	u, ok := r.db.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsVerified = true
	u.UpdatedAt = time.Now().UTC()
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
