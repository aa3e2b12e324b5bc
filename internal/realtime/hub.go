package realtime

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhub/config"
	"github.com/oksasatya/taskhub/internal/application"
	"github.com/oksasatya/taskhub/internal/domain/entity"
)

var ErrHubClosed = errors.New("realtime hub closed")

type Options struct {
	PingInterval    time.Duration
	PongWait        time.Duration
	WriteWait       time.Duration
	MaxMessageBytes int64
	SendBuffer      int
	TypingTTL       time.Duration
	HandleTimeout   time.Duration
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		PingInterval:    cfg.WSPingInterval,
		PongWait:        cfg.WSPongWait,
		WriteWait:       cfg.WSWriteWait,
		MaxMessageBytes: cfg.WSMaxMessageBytes,
		SendBuffer:      cfg.WSSendBuffer,
		TypingTTL:       cfg.TypingTTL,
		HandleTimeout:   10 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.PingInterval <= 0 || o.PingInterval >= o.PongWait {
		o.PingInterval = o.PongWait * 9 / 10
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.MaxMessageBytes <= 0 {
		o.MaxMessageBytes = 64 << 10
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 256
	}
	if o.TypingTTL <= 0 {
		o.TypingTTL = 3 * time.Second
	}
	if o.HandleTimeout <= 0 {
		o.HandleTimeout = 10 * time.Second
	}
	return o
}

// ChatPort is the part of the chat service the relay calls for inbound frames.
type ChatPort interface {
	Send(ctx context.Context, actor application.Actor, in application.SendInput, originConn string) (*entity.Message, error)
	MarkRead(ctx context.Context, actor application.Actor, roomID string) (int64, error)
	Participants(ctx context.Context, actor application.Actor, roomID string) ([]string, error)
}

// MembershipPort decides who may join a project room.
type MembershipPort interface {
	IsMember(ctx context.Context, userID, projectID string) (bool, error)
}

// Hub tracks local connections and their rooms. Room emits go through the bus,
// so with Redis every instance delivers to its own connections.
type Hub struct {
	opts     Options
	bus      Bus
	presence Presence
	typing   *Typing
	logger   *logrus.Logger

	chat     ChatPort
	projects MembershipPort

	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
	closed  bool

	delivered     atomic.Int64
	evicted       atomic.Int64
	publishErrors atomic.Int64
}

func NewHub(opts Options, bus Bus, presence Presence, logger *logrus.Logger) *Hub {
	if bus == nil {
		bus = NewLocalBus()
	}
	if presence == nil {
		presence = NewMemoryPresence()
	}
	h := &Hub{
		opts:     opts.withDefaults(),
		bus:      bus,
		presence: presence,
		logger:   logger,
		clients:  map[*Client]struct{}{},
		rooms:    map[string]map[*Client]struct{}{},
	}
	h.typing = NewTyping(h.opts.TypingTTL, h.typingChanged)
	return h
}

// Bind attaches the services used to handle inbound frames.
func (h *Hub) Bind(chat ChatPort, projects MembershipPort) {
	h.chat = chat
	h.projects = projects
}

// Start subscribes the hub to its bus.
func (h *Hub) Start() error {
	return h.bus.Start(h.deliver)
}

// Typing exposes the tracker so the chat service can clear it on send.
func (h *Hub) Typing() *Typing { return h.typing }

func (h *Hub) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), h.opts.HandleTimeout)
}

// ---- emitting ----

func (h *Hub) ToUsers(userIDs []string, skipConn, event string, data any) {
	payload, err := encode(event, data)
	if err != nil {
		h.logger.WithError(err).WithField("event", event).Error("encode frame failed")
		return
	}
	seen := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		h.publish(Delivery{Room: application.UserRoom(id), Skip: skipConn, Payload: payload})
	}
}

func (h *Hub) ToProject(projectID, event string, data any) {
	h.toRoom(application.ProjectRoom(projectID), "", event, data)
}

// broadcast sends to every connection except skipConn.
func (h *Hub) broadcast(skipConn, event string, data any) {
	h.toRoom(broadcastRoom, skipConn, event, data)
}

func (h *Hub) toRoom(room, skipConn, event string, data any) {
	payload, err := encode(event, data)
	if err != nil {
		h.logger.WithError(err).WithField("event", event).Error("encode frame failed")
		return
	}
	h.publish(Delivery{Room: room, Skip: skipConn, Payload: payload})
}

func (h *Hub) publish(d Delivery) {
	ctx, cancel := context.WithTimeout(context.Background(), h.opts.WriteWait)
	defer cancel()
	if err := h.bus.Publish(ctx, d); err != nil {
		h.publishErrors.Add(1)
		h.logger.WithError(err).WithField("room", d.Room).Warn("realtime publish failed")
	}
}

// deliver hands a delivery to the local connections in its room.
func (h *Hub) deliver(d Delivery) {
	h.mu.RLock()
	var targets []*Client
	if d.Room == broadcastRoom {
		targets = make([]*Client, 0, len(h.clients))
		for c := range h.clients {
			targets = append(targets, c)
		}
	} else {
		members := h.rooms[d.Room]
		targets = make([]*Client, 0, len(members))
		for c := range members {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if d.Skip != "" && c.id == d.Skip {
			continue
		}
		c.enqueue(d.Payload)
	}
}

func (h *Hub) typingChanged(tc TypingChange) {
	h.ToUsers(tc.Recipients, "", EventChatTyping, typingOut{RoomID: tc.RoomID, UserID: tc.UserID, Typing: tc.Typing})
}

// ---- membership ----

// Register adds c to the hub and its user room, announces the user if this is
// their first connection and sends c the presence snapshot.
func (h *Hub) Register(c *Client) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHubClosed
	}
	h.clients[c] = struct{}{}
	h.joinLocked(c, application.UserRoom(c.userID))
	h.mu.Unlock()

	ctx, cancel := h.opCtx()
	defer cancel()
	first, err := h.presence.Connect(ctx, c.userID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", c.userID).Warn("presence connect failed")
	}
	if first {
		h.broadcast(c.id, EventUserOnline, presenceOut{UserID: c.userID})
	}
	online, err := h.presence.Online(ctx)
	if err != nil {
		h.logger.WithError(err).Warn("presence snapshot failed")
		online = []string{}
	}
	c.emit(EventSnapshot, snapshotOut{UserIDs: online})
	return nil
}

// Unregister is idempotent. The last connection of a user takes them offline.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
	h.mu.Unlock()
	c.close()

	ctx, cancel := h.opCtx()
	defer cancel()
	last, err := h.presence.Disconnect(ctx, c.userID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", c.userID).Warn("presence disconnect failed")
		return
	}
	if last {
		h.typing.StopUser(c.userID)
		now := time.Now().UTC()
		h.broadcast("", EventUserOffline, presenceOut{UserID: c.userID, LastSeen: &now})
	}
}

func (h *Hub) joinLocked(c *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = map[*Client]struct{}{}
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) leaveLocked(c *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(c.rooms, room)
}

func (h *Hub) join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		h.joinLocked(c, room)
	}
}

func (h *Hub) leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

// Online lists users with at least one open connection.
func (h *Hub) Online(ctx context.Context) ([]string, error) {
	return h.presence.Online(ctx)
}

// Close disconnects every client and stops the bus.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	h.typing.Close()
	for _, c := range clients {
		c.closeWith(closeGoingAway)
		h.Unregister(c)
	}
	return h.bus.Close()
}

type Stats struct {
	Connections   int   `json:"connections"`
	Rooms         int   `json:"rooms"`
	Users         int   `json:"users"`
	Delivered     int64 `json:"delivered"`
	Evicted       int64 `json:"evicted"`
	PublishErrors int64 `json:"publish_errors"`
}

func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	users := 0
	for room := range h.rooms {
		if strings.HasPrefix(room, "user:") {
			users++
		}
	}
	return Stats{
		Connections:   len(h.clients),
		Rooms:         len(h.rooms),
		Users:         users,
		Delivered:     h.delivered.Load(),
		Evicted:       h.evicted.Load(),
		PublishErrors: h.publishErrors.Load(),
	}
}

var _ application.Emitter = (*Hub)(nil)
var _ application.TypingClearer = (*Typing)(nil)
