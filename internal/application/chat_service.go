package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhub/internal/domain/entity"
	repo "github.com/oksasatya/taskhub/internal/domain/repository"
)

const (
	defaultMessagePage = 50
	maxMessagePage     = 100
)

type ChatService struct {
	Repo     repo.ChatRepository
	Users    repo.UserRepository
	Projects repo.ProjectRepository
	Typing   TypingClearer
	Emitter  Emitter
	Logger   *logrus.Logger
}

func NewChatService(r repo.ChatRepository, users repo.UserRepository, projects repo.ProjectRepository, emitter Emitter, logger *logrus.Logger) *ChatService {
	if emitter == nil {
		emitter = nopEmitter{}
	}
	return &ChatService{Repo: r, Users: users, Projects: projects, Emitter: emitter, Logger: logger}
}

// RoomView is a room as seen by one participant.
type RoomView struct {
	*entity.ChatRoom
	UnreadCount int64 `json:"unread_count"`
}

// MessageEvent is the payload of chat:message.
type MessageEvent struct {
	Message *entity.Message `json:"message"`
}

// ReadEvent is the payload of chat:read.
type ReadEvent struct {
	RoomID string    `json:"room_id"`
	UserID string    `json:"user_id"`
	ReadAt time.Time `json:"read_at"`
}

func (s *ChatService) room(ctx context.Context, actor Actor, id string) (*entity.ChatRoom, error) {
	r, err := s.Repo.GetRoom(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	if !r.HasParticipant(actor.ID) {
		return nil, ErrNotParticipant
	}
	return r, nil
}

func (s *ChatService) view(ctx context.Context, userID string, r *entity.ChatRoom) RoomView {
	n, err := s.Repo.CountUnread(ctx, r.ID, userID)
	if err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("room_id", r.ID).Warn("count unread failed")
	}
	return RoomView{ChatRoom: r, UnreadCount: n}
}

// ListRooms returns the actor's rooms, most recently active first.
func (s *ChatService) ListRooms(ctx context.Context, actor Actor, archived bool) ([]RoomView, error) {
	rooms, err := s.Repo.ListRooms(ctx, actor.ID, archived)
	if err != nil {
		return nil, err
	}
	out := make([]RoomView, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, s.view(ctx, actor.ID, r))
	}
	return out, nil
}

func (s *ChatService) GetRoom(ctx context.Context, actor Actor, id string) (RoomView, error) {
	r, err := s.room(ctx, actor, id)
	if err != nil {
		return RoomView{}, err
	}
	return s.view(ctx, actor.ID, r), nil
}

// GetOrCreateDirect returns the direct room between actor and otherID, creating
// it on first use. Concurrent creators converge on the same room.
func (s *ChatService) GetOrCreateDirect(ctx context.Context, actor Actor, otherID string) (*entity.ChatRoom, bool, error) {
	if otherID == actor.ID {
		return nil, false, ErrSelfChat
	}
	if _, err := s.Users.GetByID(ctx, otherID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, false, ErrUserNotFound
		}
		return nil, false, err
	}
	key := entity.DirectRoomKey(actor.ID, otherID)
	if r, err := s.Repo.GetDirectRoom(ctx, key); err == nil {
		return r, false, nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, false, err
	}

	r := &entity.ChatRoom{
		Type:         entity.RoomDirect,
		Participants: []string{actor.ID, otherID},
		CreatedBy:    actor.ID,
		DirectKey:    key,
	}
	if err := s.Repo.CreateRoom(ctx, r); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			existing, gerr := s.Repo.GetDirectRoom(ctx, key)
			return existing, false, gerr
		}
		return nil, false, err
	}
	s.Emitter.ToUsers([]string{otherID}, "", EventChatRoom, r)
	return r, true, nil
}

type RoomInput struct {
	Name         string
	Participants []string
	ProjectID    string
}

// CreateRoom opens a group room, or a project room whose participants are
// the project's members plus anyone listed.
func (s *ChatService) CreateRoom(ctx context.Context, actor Actor, in RoomInput) (*entity.ChatRoom, error) {
	ids := []string{actor.ID}
	r := &entity.ChatRoom{
		Name:      strings.TrimSpace(in.Name),
		Type:      entity.RoomGroup,
		CreatedBy: actor.ID,
	}
	if in.ProjectID != "" {
		p, err := s.Projects.GetByID(ctx, in.ProjectID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		if err != nil {
			return nil, err
		}
		if !p.IsMember(actor.ID) && !actor.IsAdmin() {
			return nil, ErrForbidden
		}
		r.Type = entity.RoomProject
		r.ProjectID = p.ID
		if r.Name == "" {
			r.Name = p.Name
		}
		ids = appendUnique(ids, p.MemberIDs()...)
	}
	ids = appendUnique(ids, in.Participants...)

	users, err := s.Users.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(users) != len(ids) {
		return nil, ErrUserNotFound
	}
	if r.Type == entity.RoomGroup && len(ids) < 2 {
		return nil, &entity.ValidationError{Fields: map[string]string{"participants": "must include at least one other user"}}
	}
	r.Participants = ids
	if err := s.Repo.CreateRoom(ctx, r); err != nil {
		return nil, err
	}
	s.Emitter.ToUsers(r.Others(actor.ID), "", EventChatRoom, r)
	return r, nil
}

// ListMessages pages backwards from before and returns the page oldest first.
func (s *ChatService) ListMessages(ctx context.Context, actor Actor, roomID string, before time.Time, limit int) ([]*entity.Message, error) {
	if _, err := s.room(ctx, actor, roomID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultMessagePage
	}
	if limit > maxMessagePage {
		limit = maxMessagePage
	}
	msgs, err := s.Repo.ListMessages(ctx, roomID, before, limit)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

type SendInput struct {
	RoomID      string
	Content     string
	ClientID    string
	Attachments []entity.Attachment
}

// Send persists a message and delivers chat:message to every connection of
// every participant except originConn, the socket that sent it.
func (s *ChatService) Send(ctx context.Context, actor Actor, in SendInput, originConn string) (*entity.Message, error) {
	r, err := s.room(ctx, actor, in.RoomID)
	if err != nil {
		return nil, err
	}
	if r.IsArchived {
		return nil, ErrRoomArchived
	}
	if in.Attachments == nil {
		in.Attachments = []entity.Attachment{}
	}
	m := &entity.Message{
		RoomID:      r.ID,
		SenderID:    actor.ID,
		Content:     in.Content,
		ClientID:    in.ClientID,
		Attachments: append([]entity.Attachment{}, in.Attachments...),
		ReadBy:      []entity.ReadReceipt{},
	}
	if err := s.Repo.CreateMessage(ctx, m); err != nil {
		return nil, err
	}

	at := m.CreatedAt
	r.LastMessage = m.Preview()
	r.LastMessageAt = &at
	if err := s.Repo.UpdateRoom(ctx, r); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("room_id", r.ID).Warn("update room preview failed")
	}
	if s.Typing != nil {
		s.Typing.Clear(r.ID, actor.ID)
	}
	s.Emitter.ToUsers(r.Participants, originConn, EventChatMessage, MessageEvent{Message: m})
	return m, nil
}

// MarkRead records a receipt on every unread message and tells the other participants.
func (s *ChatService) MarkRead(ctx context.Context, actor Actor, roomID string) (int64, error) {
	r, err := s.room(ctx, actor, roomID)
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	n, err := s.Repo.MarkRead(ctx, r.ID, actor.ID, now)
	if err != nil {
		return 0, err
	}
	s.Emitter.ToUsers(r.Others(actor.ID), "", EventChatRead, ReadEvent{RoomID: r.ID, UserID: actor.ID, ReadAt: now})
	return n, nil
}

func (s *ChatService) Archive(ctx context.Context, actor Actor, roomID string, archived bool) (*entity.ChatRoom, error) {
	r, err := s.room(ctx, actor, roomID)
	if err != nil {
		return nil, err
	}
	if r.IsArchived == archived {
		return r, nil
	}
	r.IsArchived = archived
	if err := s.Repo.UpdateRoom(ctx, r); err != nil {
		return nil, err
	}
	// every participant's room list moves, the actor's other tabs included
	s.Emitter.ToUsers(r.Participants, "", EventChatRoom, r)
	return r, nil
}

// Participants returns the members of a room the actor belongs to.
func (s *ChatService) Participants(ctx context.Context, actor Actor, roomID string) ([]string, error) {
	r, err := s.room(ctx, actor, roomID)
	if err != nil {
		return nil, err
	}
	return r.Participants, nil
}

func appendUnique(list []string, vals ...string) []string {
	for _, v := range vals {
		if v != "" && !contains(list, v) {
			list = append(list, v)
		}
	}
	return list
}
