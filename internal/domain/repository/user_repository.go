package repository

import (
	"context"

	"github.com/oksasatya/taskhub/internal/domain/entity"
)

type UserFilter struct {
	Role   entity.Role
	Query  string // name or email substring, case-insensitive
	Offset int
	Limit  int
}

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetMany(ctx context.Context, ids []string) ([]*entity.User, error)
	List(ctx context.Context, f UserFilter) ([]*entity.User, int64, error)
	Update(ctx context.Context, u *entity.User) error
	UpdatePassword(ctx context.Context, id, hash string) error
	SetVerified(ctx context.Context, id string) error
}
