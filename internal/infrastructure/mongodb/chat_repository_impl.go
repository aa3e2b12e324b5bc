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

type ChatRepository struct {
	rooms    *mongo.Collection
	messages *mongo.Collection
}

func NewChatRepository(db *mongo.Database) *ChatRepository {
	return &ChatRepository{
		rooms:    db.Collection(colChatRooms),
		messages: db.Collection(colMessages),
	}
}

func (r *ChatRepository) CreateRoom(ctx context.Context, room *entity.ChatRoom) error {
	if err := room.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	room.ID = newID()
	room.CreatedAt, room.UpdatedAt = now, now
	_, err := r.rooms.InsertOne(ctx, room)
	return mapErr(err)
}

func (r *ChatRepository) GetRoom(ctx context.Context, id string) (*entity.ChatRoom, error) {
	var room entity.ChatRoom
	if err := r.rooms.FindOne(ctx, bson.M{"_id": id}).Decode(&room); err != nil {
		return nil, mapErr(err)
	}
	return &room, nil
}

func (r *ChatRepository) GetDirectRoom(ctx context.Context, key string) (*entity.ChatRoom, error) {
	var room entity.ChatRoom
	if err := r.rooms.FindOne(ctx, bson.M{"direct_key": key}).Decode(&room); err != nil {
		return nil, mapErr(err)
	}
	return &room, nil
}

func (r *ChatRepository) ListRooms(ctx context.Context, userID string, archived bool) ([]*entity.ChatRoom, error) {
	filter := bson.M{"participants": userID, "is_archived": archived}
	opts := options.Find().SetSort(bson.D{{Key: "last_message_at", Value: -1}, {Key: "created_at", Value: -1}})
	cur, err := r.rooms.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[entity.ChatRoom](ctx, cur)
}

func (r *ChatRepository) UpdateRoom(ctx context.Context, room *entity.ChatRoom) error {
	if err := room.Validate(); err != nil {
		return err
	}
	room.UpdatedAt = time.Now().UTC()
	res, err := r.rooms.ReplaceOne(ctx, bson.M{"_id": room.ID}, room)
	if err != nil {
		return mapErr(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ChatRepository) CreateMessage(ctx context.Context, m *entity.Message) error {
	if err := m.Validate(); err != nil {
		return err
	}
	m.ID = newID()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if m.ReadBy == nil {
		m.ReadBy = []entity.ReadReceipt{}
	}
	_, err := r.messages.InsertOne(ctx, m)
	return mapErr(err)
}

func (r *ChatRepository) ListMessages(ctx context.Context, roomID string, before time.Time, limit int) ([]*entity.Message, error) {
	filter := bson.M{"room_id": roomID}
	if !before.IsZero() {
		filter["created_at"] = bson.M{"$lt": before}
	}
	cur, err := r.messages.Find(ctx, filter, findOptions(0, limit).SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll[entity.Message](ctx, cur)
}

func unreadFilter(roomID, userID string) bson.M {
	return bson.M{
		"room_id":         roomID,
		"sender_id":       bson.M{"$ne": userID},
		"read_by.user_id": bson.M{"$ne": userID},
	}
}

func (r *ChatRepository) MarkRead(ctx context.Context, roomID, userID string, at time.Time) (int64, error) {
	update := bson.M{"$push": bson.M{"read_by": entity.ReadReceipt{UserID: userID, ReadAt: at}}}
	res, err := r.messages.UpdateMany(ctx, unreadFilter(roomID, userID), update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *ChatRepository) CountUnread(ctx context.Context, roomID, userID string) (int64, error) {
	return r.messages.CountDocuments(ctx, unreadFilter(roomID, userID))
}

var _ repository.ChatRepository = (*ChatRepository)(nil)
