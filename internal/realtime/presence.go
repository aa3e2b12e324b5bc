package realtime

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/taskhub/pkg/helpers"
)

// Presence counts open connections per user. Connect reports the first
// connection and Disconnect the last one.
type Presence interface {
	Connect(ctx context.Context, userID string) (first bool, err error)
	Disconnect(ctx context.Context, userID string) (last bool, err error)
	Online(ctx context.Context) ([]string, error)
}

type MemoryPresence struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewMemoryPresence() *MemoryPresence {
	return &MemoryPresence{counts: map[string]int{}}
}

func (p *MemoryPresence) Connect(_ context.Context, userID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts[userID]++
	return p.counts[userID] == 1, nil
}

func (p *MemoryPresence) Disconnect(_ context.Context, userID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := p.counts[userID]
	if !ok {
		return false, nil
	}
	if n <= 1 {
		delete(p.counts, userID)
		return true, nil
	}
	p.counts[userID] = n - 1
	return false, nil
}

func (p *MemoryPresence) Online(context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.counts))
	for id := range p.counts {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// decrScript decrements a hash counter and removes the field at zero. A
// missing field returns -1 and is left untouched.
var decrScript = redis.NewScript(`
if redis.call("HEXISTS", KEYS[1], ARGV[1]) == 0 then
  return -1
end
local n = redis.call("HINCRBY", KEYS[1], ARGV[1], -1)
if n <= 0 then
  redis.call("HDEL", KEYS[1], ARGV[1])
  return 0
end
return n
`)

// RedisPresence shares connection counts between API instances.
type RedisPresence struct {
	rdb *redis.Client
	key string
}

func NewRedisPresence(rdb *redis.Client) *RedisPresence {
	return &RedisPresence{rdb: rdb, key: helpers.KeyPresence}
}

func (p *RedisPresence) Connect(ctx context.Context, userID string) (bool, error) {
	n, err := p.rdb.HIncrBy(ctx, p.key, userID, 1).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (p *RedisPresence) Disconnect(ctx context.Context, userID string) (bool, error) {
	n, err := decrScript.Run(ctx, p.rdb, []string{p.key}, userID).Int64()
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

func (p *RedisPresence) Online(ctx context.Context) ([]string, error) {
	all, err := p.rdb.HGetAll(ctx, p.key).Result()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(all))
	for id, v := range all {
		if n, _ := strconv.Atoi(v); n > 0 {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

var (
	_ Presence = (*MemoryPresence)(nil)
	_ Presence = (*RedisPresence)(nil)
)
