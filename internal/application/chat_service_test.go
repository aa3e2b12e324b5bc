package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/taskhub/internal/domain/entity"
)

func TestDirectRoomIsIdempotentPerPair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice", entity.RoleUser)
	b := f.user(t, "bob", entity.RoleUser)

	r1, created, err := f.chat.GetOrCreateDirect(ctx, a, b.ID)
	require.NoError(t, err)
	assert.True(t, created)

	r2, created, err := f.chat.GetOrCreateDirect(ctx, b, a.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, r1.ID, r2.ID)

	_, _, err = f.chat.GetOrCreateDirect(ctx, a, a.ID)
	assert.ErrorIs(t, err, ErrSelfChat)
	_, _, err = f.chat.GetOrCreateDirect(ctx, a, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestChatSendDeliveryAndReceipts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice", entity.RoleUser)
	b := f.user(t, "bob", entity.RoleUser)
	room, _, err := f.chat.GetOrCreateDirect(ctx, a, b.ID)
	require.NoError(t, err)

	msg, err := f.chat.Send(ctx, a, SendInput{RoomID: room.ID, Content: "hi", ClientID: "c-1"}, "conn-7")
	require.NoError(t, err)
	assert.Equal(t, "c-1", msg.ClientID)

	sent := f.emitter.named(EventChatMessage)
	require.Len(t, sent, 1)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, sent[0].Users)
	assert.Equal(t, "conn-7", sent[0].Skip)
	assert.Equal(t, []string{room.ID + "/" + a.ID}, f.typing.cleared)

	view, err := f.chat.GetRoom(ctx, b, room.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, view.UnreadCount)
	assert.Equal(t, "hi", view.LastMessage)
	require.NotNil(t, view.LastMessageAt)

	mine, err := f.chat.GetRoom(ctx, a, room.ID)
	require.NoError(t, err)
	assert.Zero(t, mine.UnreadCount)

	n, err := f.chat.MarkRead(ctx, b, room.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	view, err = f.chat.GetRoom(ctx, b, room.ID)
	require.NoError(t, err)
	assert.Zero(t, view.UnreadCount)

	reads := f.emitter.named(EventChatRead)
	require.Len(t, reads, 1)
	assert.Equal(t, []string{a.ID}, reads[0].Users)
}

func TestChatRejectsNonParticipants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice", entity.RoleUser)
	b := f.user(t, "bob", entity.RoleUser)
	eve := f.user(t, "eve", entity.RoleAdmin)
	room, _, err := f.chat.GetOrCreateDirect(ctx, a, b.ID)
	require.NoError(t, err)

	_, err = f.chat.Send(ctx, eve, SendInput{RoomID: room.ID, Content: "psst"}, "")
	assert.ErrorIs(t, err, ErrNotParticipant)
	_, err = f.chat.ListMessages(ctx, eve, room.ID, time.Time{}, 10)
	assert.ErrorIs(t, err, ErrNotParticipant)
	_, err = f.chat.GetRoom(ctx, a, "missing")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestChatArchivedRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice", entity.RoleUser)
	b := f.user(t, "bob", entity.RoleUser)
	room, _, err := f.chat.GetOrCreateDirect(ctx, a, b.ID)
	require.NoError(t, err)

	_, err = f.chat.Archive(ctx, a, room.ID, true)
	require.NoError(t, err)

	roomEvents := f.emitter.named(EventChatRoom)
	require.Len(t, roomEvents, 2)
	archivedEvt := roomEvents[1]
	assert.ElementsMatch(t, []string{a.ID, b.ID}, archivedEvt.Users)
	if r, ok := archivedEvt.Data.(*entity.ChatRoom); assert.True(t, ok) {
		assert.True(t, r.IsArchived)
	}

	// archiving twice is a no-op and emits nothing
	_, err = f.chat.Archive(ctx, b, room.ID, true)
	require.NoError(t, err)
	assert.Len(t, f.emitter.named(EventChatRoom), 2)

	_, err = f.chat.Send(ctx, b, SendInput{RoomID: room.ID, Content: "still there?"}, "")
	assert.ErrorIs(t, err, ErrRoomArchived)

	active, err := f.chat.ListRooms(ctx, a, false)
	require.NoError(t, err)
	assert.Empty(t, active)
	archived, err := f.chat.ListRooms(ctx, a, true)
	require.NoError(t, err)
	assert.Len(t, archived, 1)
}

func TestChatListMessagesOldestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "alice", entity.RoleUser)
	b := f.user(t, "bob", entity.RoleUser)
	room, _, err := f.chat.GetOrCreateDirect(ctx, a, b.ID)
	require.NoError(t, err)

	base := time.Now().UTC().Add(-time.Hour)
	for i, text := range []string{"one", "two", "three"} {
		m := &entity.Message{
			RoomID:      room.ID,
			SenderID:    a.ID,
			Content:     text,
			Attachments: []entity.Attachment{},
			ReadBy:      []entity.ReadReceipt{},
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, f.chat.Repo.CreateMessage(ctx, m))
	}

	msgs, err := f.chat.ListMessages(ctx, b, room.ID, time.Time{}, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "two", msgs[0].Content)
	assert.Equal(t, "three", msgs[1].Content)

	older, err := f.chat.ListMessages(ctx, b, room.ID, msgs[0].CreatedAt, 2)
	require.NoError(t, err)
	require.Len(t, older, 1)
	assert.Equal(t, "one", older[0].Content)
}

func TestCreateProjectRoomIncludesMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner", entity.RoleUser)
	member := f.user(t, "member", entity.RoleUser)
	outsider := f.user(t, "outsider", entity.RoleUser)
	p := f.project(t, owner, map[string]entity.MemberRole{member.ID: entity.MemberRegular})

	room, err := f.chat.CreateRoom(ctx, owner, RoomInput{ProjectID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, entity.RoomProject, room.Type)
	assert.Equal(t, p.Name, room.Name)
	assert.ElementsMatch(t, []string{owner.ID, member.ID}, room.Participants)

	_, err = f.chat.CreateRoom(ctx, outsider, RoomInput{ProjectID: p.ID})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.chat.CreateRoom(ctx, owner, RoomInput{Name: "solo"})
	_, ok := entity.IsValidationError(err)
	assert.True(t, ok)

	_, err = f.chat.CreateRoom(ctx, owner, RoomInput{Name: "ghosts", Participants: []string{"ghost"}})
	assert.ErrorIs(t, err, ErrUserNotFound)
}
