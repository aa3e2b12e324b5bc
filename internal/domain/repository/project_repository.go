package repository

import (
	"context"

	"github.com/oksasatya/taskhub/internal/domain/entity"
)

type ProjectRepository interface {
	Create(ctx context.Context, p *entity.Project) error
	GetByID(ctx context.Context, id string) (*entity.Project, error)
	// ListForMember returns projects where userID is a member; empty userID lists all.
	ListForMember(ctx context.Context, userID string) ([]*entity.Project, error)
	Update(ctx context.Context, p *entity.Project) error
	Delete(ctx context.Context, id string) error
}
