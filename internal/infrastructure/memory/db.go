// Package memory keeps documents in process memory. It backs the test suites
// and STORAGE_DRIVER=memory for running the API without MongoDB.
package memory

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/oksasatya/taskhub/internal/domain/entity"
)

// DB holds one table per document collection.
type DB struct {
	mu            sync.RWMutex
	users         map[string]*entity.User
	tasks         map[string]*entity.Task
	comments      map[string]*entity.Comment
	projects      map[string]*entity.Project
	rooms         map[string]*entity.ChatRoom
	messages      map[string]*entity.Message
	notifications map[string]*entity.Notification
	activities    []*entity.Activity
}

func Open() *DB {
	return &DB{
		users:         map[string]*entity.User{},
		tasks:         map[string]*entity.Task{},
		comments:      map[string]*entity.Comment{},
		projects:      map[string]*entity.Project{},
		rooms:         map[string]*entity.ChatRoom{},
		messages:      map[string]*entity.Message{},
		notifications: map[string]*entity.Notification{},
	}
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func page[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
