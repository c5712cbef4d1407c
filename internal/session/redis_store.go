package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store using Redis.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration // Session TTL (time to live)
}

// NewRedisStore creates a new Redis-backed store.
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client: client,
		ttl:    ttl,
	}, nil
}

// NewStoreWithClient wraps an existing Redis client. Tests use it to run
// against miniredis.
func NewStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// Load loads a session from Redis. A missing session comes back empty rather
// than as an error; first contact is not an exceptional case.
func (r *RedisStore) Load(ctx context.Context, sessionID string) (*SessionData, error) {
	key := r.sessionKey(sessionID)

	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		now := time.Now()
		return &SessionData{
			SessionID: sessionID,
			Messages:  []Message{},
			Metadata: Metadata{
				StartedAt:    now,
				LastActivity: now,
			},
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session from Redis: %w", err)
	}

	var session SessionData
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to parse session data: %w", err)
	}

	return &session, nil
}

// Save writes the session to Redis with a fresh TTL.
func (r *RedisStore) Save(ctx context.Context, session *SessionData) error {
	session.Metadata.LastActivity = time.Now()
	session.Metadata.MessageCount = len(session.Messages)

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	key := r.sessionKey(session.SessionID)
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session to Redis: %w", err)
	}

	return nil
}

// Clear removes a session from Redis.
func (r *RedisStore) Clear(ctx context.Context, sessionID string) error {
	key := r.sessionKey(sessionID)

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	return nil
}

// Exists checks if a session exists in Redis.
func (r *RedisStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	key := r.sessionKey(sessionID)

	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session existence: %w", err)
	}

	return exists > 0, nil
}

// Close closes the Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Ping verifies the Redis connection is alive.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
