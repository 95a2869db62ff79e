package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flightdecklabs/flightdeck/core"
)

// RedisStore is a Redis-backed Store for durable, shared conversation
// history. Works with local Redis, AWS ElastiCache or Google Cloud
// Memorystore. Each session is one JSON-encoded list under
// "<prefix><session-id>", appended via RPush so insertion order is preserved
// by Redis itself.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisStoreOptions configures a RedisStore.
type RedisStoreOptions struct {
	// Addr is the host:port of the Redis server.
	Addr string
	// Password authenticates against protected instances.
	Password string
	// DB selects the Redis logical database.
	DB int
	// Prefix namespaces session keys. Defaults to "flightdeck:session:".
	Prefix string
	// TTL, when positive, expires a session this long after its last write.
	TTL time.Duration
}

// NewRedisStore creates a Store backed by the Redis instance at opts.Addr,
// verifying connectivity with a short ping.
func NewRedisStore(optFns ...func(o *RedisStoreOptions)) (*RedisStore, error) {
	opts := RedisStoreOptions{
		Addr:   "localhost:6379",
		Prefix: "flightdeck:session:",
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client, prefix: opts.Prefix, ttl: opts.TTL}, nil
}

// NewRedisStoreFromClient wraps an existing client, e.g. one shared with
// other subsystems or a test server.
func NewRedisStoreFromClient(client *redis.Client, optFns ...func(o *RedisStoreOptions)) *RedisStore {
	opts := RedisStoreOptions{Prefix: "flightdeck:session:"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &RedisStore{client: client, prefix: opts.Prefix, ttl: opts.TTL}
}

// Close releases the underlying Redis connection pool.
func (s *RedisStore) Close() error { return s.client.Close() }

// Ping checks connectivity to the backing Redis instance.
func (s *RedisStore) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *RedisStore) key(sessionID string) string { return s.prefix + sessionID }

// Append implements Store.
func (s *RedisStore) Append(ctx context.Context, sessionID string, msgs ...core.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	encoded := make([]any, len(msgs))
	for i, msg := range msgs {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		encoded[i] = data
	}

	key := s.key(sessionID)
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, encoded...)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append messages: %w", err)
	}
	return nil
}

// Read implements Store.
func (s *RedisStore) Read(ctx context.Context, sessionID string) ([]core.Message, error) {
	raw, err := s.client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	msgs := make([]core.Message, 0, len(raw))
	for _, item := range raw {
		var msg core.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// Clear implements Store.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
