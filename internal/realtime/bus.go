package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Delivery is one encoded frame addressed to a room. Skip names a connection
// that must not receive it.
type Delivery struct {
	Room    string          `json:"room"`
	Skip    string          `json:"skip,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// Bus fans deliveries out to every hub instance, including the publisher.
type Bus interface {
	Publish(ctx context.Context, d Delivery) error
	Start(deliver func(Delivery)) error
	Close() error
}

// LocalBus delivers in-process. Used when Redis is not configured.
type LocalBus struct {
	mu      sync.RWMutex
	deliver func(Delivery)
}

func NewLocalBus() *LocalBus { return &LocalBus{} }

func (b *LocalBus) Publish(_ context.Context, d Delivery) error {
	b.mu.RLock()
	fn := b.deliver
	b.mu.RUnlock()
	if fn != nil {
		fn(d)
	}
	return nil
}

func (b *LocalBus) Start(deliver func(Delivery)) error {
	b.mu.Lock()
	b.deliver = deliver
	b.mu.Unlock()
	return nil
}

func (b *LocalBus) Close() error {
	return b.Start(nil)
}

// RedisBus relays deliveries over a Redis pub/sub channel so that every API
// instance reaches its own connections.
type RedisBus struct {
	rdb     *redis.Client
	channel string
	logger  *logrus.Logger

	mu     sync.Mutex
	sub    *redis.PubSub
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRedisBus(rdb *redis.Client, channel string, logger *logrus.Logger) *RedisBus {
	return &RedisBus{rdb: rdb, channel: channel, logger: logger}
}

func (b *RedisBus) Publish(ctx context.Context, d Delivery) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// Start subscribes and waits for the confirmation so that nothing published
// afterwards is missed.
func (b *RedisBus) Start(deliver func(Delivery)) error {
	ctx, cancel := context.WithCancel(context.Background())
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		cancel()
		_ = sub.Close()
		return err
	}

	b.mu.Lock()
	b.sub, b.cancel, b.done = sub, cancel, make(chan struct{})
	done := b.done
	b.mu.Unlock()

	go func() {
		defer close(done)
		for msg := range sub.Channel() {
			var d Delivery
			if err := json.Unmarshal([]byte(msg.Payload), &d); err != nil {
				b.logger.WithError(err).Warn("realtime bus: bad payload")
				continue
			}
			deliver(d)
		}
	}()
	return nil
}

func (b *RedisBus) Close() error {
	b.mu.Lock()
	sub, cancel, done := b.sub, b.cancel, b.done
	b.sub = nil
	b.mu.Unlock()
	if sub == nil {
		return nil
	}
	cancel()
	err := sub.Close()
	<-done
	return err
}

var (
	_ Bus = (*LocalBus)(nil)
	_ Bus = (*RedisBus)(nil)
)
