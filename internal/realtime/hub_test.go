package realtime

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/taskhub/internal/application"
	"github.com/oksasatya/taskhub/internal/domain/entity"
	"github.com/oksasatya/taskhub/internal/infrastructure/memory"
)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestHub(t *testing.T, opts Options) *Hub {
	t.Helper()
	h := NewHub(opts, NewLocalBus(), NewMemoryPresence(), quietLogger())
	require.NoError(t, h.Start())
	t.Cleanup(func() { _ = h.Close() })
	return h
}

// attach registers a connection-less client; frames are read from its send buffer.
func attach(t *testing.T, h *Hub, userID string) *Client {
	t.Helper()
	c := newClient(h, nil, userID, entity.RoleUser)
	require.NoError(t, h.Register(c))
	return c
}

func drain(c *Client) []frame {
	var out []frame
	for {
		select {
		case raw := <-c.send:
			var f frame
			if json.Unmarshal(raw, &f) == nil {
				out = append(out, f)
			}
		default:
			return out
		}
	}
}

func events(frames []frame) []string {
	out := make([]string, 0, len(frames))
	for _, f := range frames {
		out = append(out, f.Event)
	}
	return out
}

func TestHubPresenceIsReferenceCounted(t *testing.T) {
	h := newTestHub(t, Options{})
	alice := attach(t, h, "alice")

	f := drain(alice)
	require.Equal(t, []string{EventSnapshot}, events(f))
	var snap snapshotOut
	require.NoError(t, json.Unmarshal(f[0].Data, &snap))
	assert.Equal(t, []string{"alice"}, snap.UserIDs)

	bob1 := attach(t, h, "bob")
	bob2 := attach(t, h, "bob")
	assert.Equal(t, []string{EventUserOnline}, events(drain(alice)))

	h.Unregister(bob1)
	assert.Empty(t, drain(alice), "bob still has a connection")
	online, err := h.Online(context.Background())
	require.NoError(t, err)
	assert.Contains(t, online, "bob")

	h.Unregister(bob2)
	f = drain(alice)
	require.Equal(t, []string{EventUserOffline}, events(f))
	var off presenceOut
	require.NoError(t, json.Unmarshal(f[0].Data, &off))
	assert.Equal(t, "bob", off.UserID)
	assert.NotNil(t, off.LastSeen)

	h.Unregister(bob2)
	assert.Empty(t, drain(alice), "unregister is idempotent")
}

func TestHubToUsersSkipsOriginConnection(t *testing.T) {
	h := newTestHub(t, Options{})
	tab1 := attach(t, h, "alice")
	tab2 := attach(t, h, "alice")
	bob := attach(t, h, "bob")
	drain(tab1)
	drain(tab2)
	drain(bob)

	h.ToUsers([]string{"alice", "bob", "alice"}, tab1.ID(), application.EventChatMessage, map[string]string{"x": "y"})

	assert.Empty(t, drain(tab1))
	assert.Equal(t, []string{application.EventChatMessage}, events(drain(tab2)))
	assert.Equal(t, []string{application.EventChatMessage}, events(drain(bob)))
}

type fakeMembership map[string][]string

func (m fakeMembership) IsMember(_ context.Context, userID, projectID string) (bool, error) {
	for _, id := range m[projectID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func TestHubProjectRooms(t *testing.T) {
	h := newTestHub(t, Options{})
	h.Bind(nil, fakeMembership{"p1": {"alice"}})
	alice := attach(t, h, "alice")
	bob := attach(t, h, "bob")
	drain(alice)
	drain(bob)

	join := inbound{Event: EventProjectJoin, Data: json.RawMessage(`{"project_id":"p1"}`)}
	h.handle(alice, join)
	h.handle(bob, join)
	assert.Equal(t, []string{EventError}, events(drain(bob)))

	h.ToProject("p1", application.EventTaskUpdated, map[string]string{"id": "t1"})
	assert.Equal(t, []string{application.EventTaskUpdated}, events(drain(alice)))
	assert.Empty(t, drain(bob))

	h.handle(alice, inbound{Event: EventProjectLeave, Data: json.RawMessage(`{"project_id":"p1"}`)})
	h.ToProject("p1", application.EventTaskUpdated, nil)
	assert.Empty(t, drain(alice))
}

func TestHubPingAndUnknownEvent(t *testing.T) {
	h := newTestHub(t, Options{})
	c := attach(t, h, "alice")
	drain(c)

	h.handle(c, inbound{Event: EventPing})
	h.handle(c, inbound{Event: "nope"})
	assert.Equal(t, []string{EventPong, EventError}, events(drain(c)))
}

func TestHubEvictsSlowClient(t *testing.T) {
	h := newTestHub(t, Options{SendBuffer: 1})
	c := attach(t, h, "alice") // the snapshot fills the buffer

	h.ToUsers([]string{"alice"}, "", application.EventNotification, nil)

	select {
	case <-c.done:
	default:
		t.Fatal("slow client was not evicted")
	}
	assert.Equal(t, closeSlow, c.closeCode)
	assert.EqualValues(t, 1, h.Stats().Evicted)
}

type chatFixture struct {
	hub   *Hub
	chat  *application.ChatService
	room  *entity.ChatRoom
	alice application.Actor
	bob   application.Actor
}

func newChatFixture(t *testing.T, opts Options) *chatFixture {
	t.Helper()
	ctx := context.Background()
	db := memory.Open()
	users := memory.NewUserRepository(db)
	mk := func(name string) application.Actor {
		u := &entity.User{Name: name, Email: name + "@example.com", Password: "hash", Role: entity.RoleUser}
		require.NoError(t, users.Create(ctx, u))
		return application.Actor{ID: u.ID, Role: u.Role}
	}

	h := newTestHub(t, opts)
	chat := application.NewChatService(memory.NewChatRepository(db), users, memory.NewProjectRepository(db), h, quietLogger())
	chat.Typing = h.Typing()
	h.Bind(chat, fakeMembership{})

	f := &chatFixture{hub: h, chat: chat, alice: mk("alice"), bob: mk("bob")}
	room, _, err := chat.GetOrCreateDirect(ctx, f.alice, f.bob.ID)
	require.NoError(t, err)
	f.room = room
	return f
}

func TestHubChatSendAcksOriginAndFansOut(t *testing.T) {
	f := newChatFixture(t, Options{})
	tab1 := attach(t, f.hub, f.alice.ID)
	tab2 := attach(t, f.hub, f.alice.ID)
	bob := attach(t, f.hub, f.bob.ID)
	drain(tab1)
	drain(tab2)
	drain(bob)

	payload, _ := json.Marshal(chatMessageIn{RoomID: f.room.ID, Content: "hello", ClientID: "tmp-1"})
	f.hub.handle(tab1, inbound{Event: EventChatMessage, Data: payload})

	got := drain(tab1)
	require.Equal(t, []string{EventChatAck}, events(got), "origin gets only the ack")
	var ack ackOut
	require.NoError(t, json.Unmarshal(got[0].Data, &ack))
	assert.Equal(t, "tmp-1", ack.ClientID)
	require.NotNil(t, ack.Message)
	assert.Equal(t, "hello", ack.Message.Content)

	for _, c := range []*Client{tab2, bob} {
		got := drain(c)
		require.Equal(t, []string{EventChatMessage}, events(got))
		var ev application.MessageEvent
		require.NoError(t, json.Unmarshal(got[0].Data, &ev))
		assert.Equal(t, ack.Message.ID, ev.Message.ID)
	}
}

func TestHubChatErrorsGoToOrigin(t *testing.T) {
	f := newChatFixture(t, Options{})
	eve := attach(t, f.hub, "eve")
	drain(eve)

	payload, _ := json.Marshal(chatMessageIn{RoomID: f.room.ID, Content: "hi", ClientID: "tmp-9"})
	f.hub.handle(eve, inbound{Event: EventChatMessage, Data: payload})

	got := drain(eve)
	require.Equal(t, []string{EventChatError}, events(got))
	var out chatErrorOut
	require.NoError(t, json.Unmarshal(got[0].Data, &out))
	assert.Equal(t, "tmp-9", out.ClientID)
	assert.Equal(t, application.ErrNotParticipant.Error(), out.Error)
}

func TestHubTypingFlow(t *testing.T) {
	f := newChatFixture(t, Options{TypingTTL: time.Minute})
	alice := attach(t, f.hub, f.alice.ID)
	bob := attach(t, f.hub, f.bob.ID)
	drain(alice)
	drain(bob)

	typing, _ := json.Marshal(roomIn{RoomID: f.room.ID})
	f.hub.handle(alice, inbound{Event: EventChatTyping, Data: typing})
	f.hub.handle(alice, inbound{Event: EventChatTyping, Data: typing})

	got := drain(bob)
	require.Equal(t, []string{EventChatTyping}, events(got))
	var ev typingOut
	require.NoError(t, json.Unmarshal(got[0].Data, &ev))
	assert.True(t, ev.Typing)
	assert.Equal(t, f.alice.ID, ev.UserID)
	assert.Empty(t, drain(alice), "typing is not echoed to the typist")

	// sending a message ends the typing state
	msg, _ := json.Marshal(chatMessageIn{RoomID: f.room.ID, Content: "done typing", ClientID: "c"})
	f.hub.handle(alice, inbound{Event: EventChatMessage, Data: msg})
	assert.Equal(t, []string{EventChatTyping, EventChatMessage}, events(drain(bob)))
	assert.False(t, f.hub.Typing().Active(f.room.ID, f.alice.ID))
}

func TestHubReadReceipts(t *testing.T) {
	f := newChatFixture(t, Options{})
	alice := attach(t, f.hub, f.alice.ID)
	bob := attach(t, f.hub, f.bob.ID)

	_, err := f.chat.Send(context.Background(), f.alice, application.SendInput{RoomID: f.room.ID, Content: "ping"}, "")
	require.NoError(t, err)
	drain(alice)
	drain(bob)

	read, _ := json.Marshal(roomIn{RoomID: f.room.ID})
	f.hub.handle(bob, inbound{Event: EventChatRead, Data: read})

	assert.Equal(t, []string{application.EventChatRead}, events(drain(alice)))
	assert.Empty(t, drain(bob))
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	h := NewHub(Options{}, NewLocalBus(), NewMemoryPresence(), quietLogger())
	require.NoError(t, h.Start())
	c := attach(t, h, "alice")

	require.NoError(t, h.Close())
	select {
	case <-c.done:
	default:
		t.Fatal("client still open after Close")
	}
	assert.Equal(t, closeGoingAway, c.closeCode)
	assert.Zero(t, h.Stats().Connections)
	assert.ErrorIs(t, h.Register(newClient(h, nil, "bob", entity.RoleUser)), ErrHubClosed)
}
