package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Memory keeps the recent turns of each conversation.
type Memory interface {
	Load(ctx context.Context, key string) ([]Turn, error)
	Append(ctx context.Context, key string, turns ...Turn) error
}

// MemoryKey scopes a conversation to a user and context.
func MemoryKey(userID, role string) string {
	return fmt.Sprintf("ai_memory:%s:%s", role, userID)
}

// RedisMemory stores turns as a capped Redis list.
type RedisMemory struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisMemory parses url and verifies the connection.
func NewRedisMemory(url string, ttl time.Duration) (*RedisMemory, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisMemory{Client: client, TTL: ttl}, nil
}

func (m *RedisMemory) Load(ctx context.Context, key string) ([]Turn, error) {
	raw, err := m.Client.LRange(ctx, key, 0, -1).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]Turn, 0, len(raw))
	for _, item := range raw {
		var t Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *RedisMemory) Append(ctx context.Context, key string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}
	values := make([]any, 0, len(turns))
	for _, t := range turns {
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("failed to marshal turn: %w", err)
		}
		values = append(values, data)
	}
	_, err := m.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		pipe.LTrim(ctx, key, -MemoryWindow, -1)
		if m.TTL > 0 {
			pipe.Expire(ctx, key, m.TTL)
		}
		return nil
	})
	return err
}

// Close closes the Redis client.
func (m *RedisMemory) Close() error {
	return m.Client.Close()
}

// LocalMemory is the in-process fallback when Redis is not configured.
type LocalMemory struct {
	mu    sync.Mutex
	turns map[string][]Turn
}

// NewLocalMemory constructs a LocalMemory.
func NewLocalMemory() *LocalMemory {
	return &LocalMemory{turns: make(map[string][]Turn)}
}

func (m *LocalMemory) Load(ctx context.Context, key string) ([]Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Turn(nil), m.turns[key]...), nil
}

func (m *LocalMemory) Append(ctx context.Context, key string, turns ...Turn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns[key] = lastTurns(append(m.turns[key], turns...), MemoryWindow)
	return nil
}

func lastTurns(turns []Turn, n int) []Turn {
	if len(turns) <= n {
		return turns
	}
	return append([]Turn(nil), turns[len(turns)-n:]...)
}

var (
	_ Memory = (*RedisMemory)(nil)
	_ Memory = (*LocalMemory)(nil)
)
