package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/oksasatya/taskhub/internal/domain/entity"
	"github.com/oksasatya/taskhub/internal/domain/repository"
)

type NotificationRepository struct {
	col *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{col: db.Collection(colNotifications)}
}

func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	n.ID = newID()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, n)
	return mapErr(err)
}

func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	var n entity.Notification
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		return nil, mapErr(err)
	}
	return &n, nil
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, offset, limit int) ([]*entity.Notification, int64, error) {
	filter := bson.M{"recipient_id": recipientID}
	if unreadOnly {
		filter["read"] = false
	}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := r.col.Find(ctx, filter, findOptions(offset, limit).SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, 0, err
	}
	list, err := decodeAll[entity.Notification](ctx, cur)
	return list, total, err
}

func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"recipient_id": recipientID, "read": false})
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id string, at time.Time) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"read": true, "read_at": at}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID string, at time.Time) (int64, error) {
	res, err := r.col.UpdateMany(ctx,
		bson.M{"recipient_id": recipientID, "read": false},
		bson.M{"$set": bson.M{"read": true, "read_at": at}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *NotificationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.NotificationRepository = (*NotificationRepository)(nil)
