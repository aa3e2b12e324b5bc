package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oksasatya/taskhub/internal/domain/entity"
	"github.com/oksasatya/taskhub/internal/domain/repository"
)

type ProjectRepository struct {
	col *mongo.Collection
}

func NewProjectRepository(db *mongo.Database) *ProjectRepository {
	return &ProjectRepository{col: db.Collection(colProjects)}
}

func (r *ProjectRepository) Create(ctx context.Context, p *entity.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	p.ID = newID()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := r.col.InsertOne(ctx, p)
	return mapErr(err)
}

func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	var p entity.Project
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *ProjectRepository) ListForMember(ctx context.Context, userID string) ([]*entity.Project, error) {
	filter := bson.M{}
	if userID != "" {
		filter["members.user_id"] = userID
	}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll[entity.Project](ctx, cur)
}

func (r *ProjectRepository) Update(ctx context.Context, p *entity.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.ProjectRepository = (*ProjectRepository)(nil)
