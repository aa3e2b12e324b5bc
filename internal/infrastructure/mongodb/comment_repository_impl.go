package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/oksasatya/taskhub/internal/domain/entity"
	"github.com/oksasatya/taskhub/internal/domain/repository"
)

type CommentRepository struct {
	col *mongo.Collection
}

func NewCommentRepository(db *mongo.Database) *CommentRepository {
	return &CommentRepository{col: db.Collection(colComments)}
}

func (r *CommentRepository) Create(ctx context.Context, c *entity.Comment) error {
	if err := c.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	c.ID = newID()
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := r.col.InsertOne(ctx, c)
	return mapErr(err)
}

func (r *CommentRepository) GetByID(ctx context.Context, id string) (*entity.Comment, error) {
	var c entity.Comment
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (r *CommentRepository) ListByTask(ctx context.Context, taskID string, offset, limit int) ([]*entity.Comment, int64, error) {
	filter := bson.M{"task_id": taskID}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := r.col.Find(ctx, filter, findOptions(offset, limit).SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, 0, err
	}
	comments, err := decodeAll[entity.Comment](ctx, cur)
	return comments, total, err
}

func (r *CommentRepository) Update(ctx context.Context, c *entity.Comment) error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.UpdatedAt = time.Now().UTC()
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *CommentRepository) DeleteByTask(ctx context.Context, taskID string) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"task_id": taskID})
	return err
}

var _ repository.CommentRepository = (*CommentRepository)(nil)
