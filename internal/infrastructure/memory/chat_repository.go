package memory

import (
	"context"
	"sort"
	"time"

	"github.com/oksasatya/taskhub/internal/domain/entity"
	"github.com/oksasatya/taskhub/internal/domain/repository"
)

type ChatRepository struct {
	db *DB
}

func NewChatRepository(db *DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) CreateRoom(ctx context.Context, room *entity.ChatRoom) error {
	if err := room.Validate(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if room.DirectKey != "" {
		for _, existing := range r.db.rooms {
			if existing.DirectKey == room.DirectKey {
				return repository.ErrConflict
			}
		}
	}
	now := time.Now().UTC()
	room.ID = newID()
	room.CreatedAt, room.UpdatedAt = now, now
	r.db.rooms[room.ID] = cloneRoom(room)
	return nil
}

func (r *ChatRepository) GetRoom(ctx context.Context, id string) (*entity.ChatRoom, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if room, ok := r.db.rooms[id]; ok {
		return cloneRoom(room), nil
	}
	return nil, repository.ErrNotFound
}

func (r *ChatRepository) GetDirectRoom(ctx context.Context, key string) (*entity.ChatRoom, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, room := range r.db.rooms {
		if room.DirectKey == key {
			return cloneRoom(room), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *ChatRepository) ListRooms(ctx context.Context, userID string, archived bool) ([]*entity.ChatRoom, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	res := []*entity.ChatRoom{}
	for _, room := range r.db.rooms {
		if room.IsArchived != archived || !room.HasParticipant(userID) {
			continue
		}
		res = append(res, cloneRoom(room))
	}
	sort.SliceStable(res, func(i, j int) bool { return lastActivity(res[i]).After(lastActivity(res[j])) })
	return res, nil
}

func lastActivity(r *entity.ChatRoom) time.Time {
	if r.LastMessageAt != nil {
		return *r.LastMessageAt
	}
	return r.CreatedAt
}

func (r *ChatRepository) UpdateRoom(ctx context.Context, room *entity.ChatRoom) error {
	if err := room.Validate(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.rooms[room.ID]; !ok {
		return repository.ErrNotFound
	}
	room.UpdatedAt = time.Now().UTC()
	r.db.rooms[room.ID] = cloneRoom(room)
	return nil
}

func (r *ChatRepository) CreateMessage(ctx context.Context, m *entity.Message) error {
	if err := m.Validate(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	m.ID = newID()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	r.db.messages[m.ID] = cloneMessage(m)
	return nil
}

func (r *ChatRepository) ListMessages(ctx context.Context, roomID string, before time.Time, limit int) ([]*entity.Message, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	res := []*entity.Message{}
	for _, m := range r.db.messages {
		if m.RoomID != roomID {
			continue
		}
		if !before.IsZero() && !m.CreatedAt.Before(before) {
			continue
		}
		res = append(res, cloneMessage(m))
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return page(res, 0, limit), nil
}

func (r *ChatRepository) MarkRead(ctx context.Context, roomID, userID string, at time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for _, m := range r.db.messages {
		if m.RoomID != roomID || m.ReadByUser(userID) {
			continue
		}
		m.ReadBy = append(m.ReadBy, entity.ReadReceipt{UserID: userID, ReadAt: at})
		n++
	}
	return n, nil
}

func (r *ChatRepository) CountUnread(ctx context.Context, roomID, userID string) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var n int64
	for _, m := range r.db.messages {
		if m.RoomID == roomID && !m.ReadByUser(userID) {
			n++
		}
	}
	return n, nil
}

var _ repository.ChatRepository = (*ChatRepository)(nil)
