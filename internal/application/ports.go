package application

import (
	"context"
	"io"

	"github.com/oksasatya/taskhub/internal/domain/entity"
	"github.com/oksasatya/taskhub/pkg/helpers"
)

// Actor is the authenticated caller of a service method.
type Actor struct {
	ID   string
	Role entity.Role
}

func (a Actor) IsAdmin() bool   { return a.Role == entity.RoleAdmin }
func (a Actor) IsManager() bool { return a.Role.AtLeast(entity.RoleManager) }

// Emitter delivers server-originated events to relay rooms. Delivery is best-effort.
type Emitter interface {
	ToUsers(userIDs []string, skipConn string, event string, data any)
	ToProject(projectID string, event string, data any)
}

// TypingClearer drops a user's typing state in a room after they send a message.
type TypingClearer interface {
	Clear(roomID, userID string)
}

// EmailQueue enqueues email jobs for the worker.
type EmailQueue interface {
	PublishJSON(ctx context.Context, body any) error
}

// ObjectStore persists uploaded files and returns their public URL.
type ObjectStore interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

// SearchIndex is one full-text index.
type SearchIndex interface {
	Put(ctx context.Context, id string, doc any) error
	Remove(ctx context.Context, id string) error
	Search(ctx context.Context, query map[string]any) ([]helpers.SearchHit, error)
}

type nopEmitter struct{}

func (nopEmitter) ToUsers([]string, string, string, any) {}
func (nopEmitter) ToProject(string, string, any)         {}

var (
	_ EmailQueue  = (*helpers.RabbitPublisher)(nil)
	_ ObjectStore = (*helpers.GCSStore)(nil)
	_ SearchIndex = (*helpers.ESIndex)(nil)
)
