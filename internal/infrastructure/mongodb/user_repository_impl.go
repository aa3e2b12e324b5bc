package mongodb

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/oksasatya/taskhub/internal/domain/entity"
	"github.com/oksasatya/taskhub/internal/domain/repository"
)

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(colUsers)}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if err := u.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	u.ID = newID()
	u.CreatedAt, u.UpdatedAt = now, now
	if _, err := r.col.InsertOne(ctx, u); err != nil {
		return mapErr(err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var u entity.User
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	var u entity.User
	if err := r.col.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&u); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *UserRepository) GetMany(ctx context.Context, ids []string) ([]*entity.User, error) {
	if len(ids) == 0 {
		return []*entity.User{}, nil
	}
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	return decodeAll[entity.User](ctx, cur)
}

func (r *UserRepository) List(ctx context.Context, f repository.UserFilter) ([]*entity.User, int64, error) {
	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.Query != "" {
		rx := containsRegex(f.Query)
		filter["$or"] = bson.A{bson.M{"name": rx}, bson.M{"email": rx}}
	}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := findOptions(f.Offset, f.Limit).SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	users, err := decodeAll[entity.User](ctx, cur)
	return users, total, err
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	u.UpdatedAt = time.Now().UTC()
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) set(ctx context.Context, id string, fields bson.M) error {
	fields["updated_at"] = time.Now().UTC()
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	return r.set(ctx, id, bson.M{"password": hash})
}

func (r *UserRepository) SetVerified(ctx context.Context, id string) error {
	return r.set(ctx, id, bson.M{"is_verified": true})
}

var _ repository.UserRepository = (*UserRepository)(nil)
