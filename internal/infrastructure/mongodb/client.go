package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oksasatya/taskhub/internal/domain/repository"
)

const (
	colUsers         = "users"
	colTasks         = "tasks"
	colComments      = "comments"
	colProjects      = "projects"
	colChatRooms     = "chat_rooms"
	colMessages      = "messages"
	colNotifications = "notifications"
)

// NewClient connects to MongoDB and verifies the connection with a ping.
func NewClient(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	c, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(c, options.Client().ApplyURI(uri).SetTimeout(timeout))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(c, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// EnsureIndexes creates the indexes the repositories rely on. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		colUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		colTasks: {
			{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "assignee_id", Value: 1}, {Key: "due_date", Value: 1}}},
			{Keys: bson.D{{Key: "creator_id", Value: 1}}},
		},
		colComments: {
			{Keys: bson.D{{Key: "task_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		colProjects: {
			{Keys: bson.D{{Key: "members.user_id", Value: 1}}},
		},
		colChatRooms: {
			{Keys: bson.D{{Key: "participants", Value: 1}, {Key: "last_message_at", Value: -1}}},
			{
				Keys: bson.D{{Key: "direct_key", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.D{{Key: "direct_key", Value: bson.D{{Key: "$type", Value: "string"}}}}),
			},
		},
		colMessages: {
			{Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		colNotifications: {
			{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "read", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}
	for col, models := range specs {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", col, err)
		}
	}
	return nil
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

// mapErr translates driver errors into repository errors.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repository.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return repository.ErrConflict
	}
	return err
}

func containsRegex(q string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
}

func decodeAll[T any](ctx context.Context, cur *mongo.Cursor) ([]*T, error) {
	defer func() { _ = cur.Close(ctx) }()
	out := []*T{}
	for cur.Next(ctx) {
		var v T
		if err := cur.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		out = append(out, &v)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("cursor: %w", err)
	}
	return out, nil
}

func findOptions(offset, limit int) *options.FindOptions {
	opts := options.Find()
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}
