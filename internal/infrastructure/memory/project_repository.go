package memory

import (
	"context"
	"sort"
	"time"

	"github.com/oksasatya/taskhub/internal/domain/entity"
	"github.com/oksasatya/taskhub/internal/domain/repository"
)

type ProjectRepository struct {
	db *DB
}

func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) Create(ctx context.Context, p *entity.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := time.Now().UTC()
	p.ID = newID()
	p.CreatedAt, p.UpdatedAt = now, now
	r.db.projects[p.ID] = cloneProject(p)
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if p, ok := r.db.projects[id]; ok {
		return cloneProject(p), nil
	}
	return nil, repository.ErrNotFound
}

func (r *ProjectRepository) ListForMember(ctx context.Context, userID string) ([]*entity.Project, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	res := []*entity.Project{}
	for _, p := range r.db.projects {
		if userID == "" || p.IsMember(userID) {
			res = append(res, cloneProject(p))
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].UpdatedAt.After(res[j].UpdatedAt) })
	return res, nil
}

func (r *ProjectRepository) Update(ctx context.Context, p *entity.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.projects[p.ID]; !ok {
		return repository.ErrNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	r.db.projects[p.ID] = cloneProject(p)
	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.projects[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.db.projects, id)
	return nil
}

var _ repository.ProjectRepository = (*ProjectRepository)(nil)
