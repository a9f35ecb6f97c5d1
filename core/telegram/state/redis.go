package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/m3rciful/dealerbot/core/logger"
)

const defaultKeyPrefix = "session:"

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	// KeyPrefix defaults to "session:".
	KeyPrefix string
	// TTL expires idle sessions; zero keeps them forever.
	TTL time.Duration
}

// RedisStore keeps JSON encoded sessions in Redis so several bot processes
// can share them.
type RedisStore[S any] struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisStore wraps an existing client.
func NewRedisStore[S any](client redis.Cmdable, opts RedisOptions) *RedisStore[S] {
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	ttl := opts.TTL
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore[S]{client: client, prefix: prefix, ttl: ttl}
}

// NewRedisClient connects and pings Redis.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	c := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return c, nil
}

func (r *RedisStore[S]) key(chatID int64) string {
	return r.prefix + strconv.FormatInt(chatID, 10)
}

// GetOrCreate loads the session. A missing key yields the zero session; it
// is persisted on the next Save.
func (r *RedisStore[S]) GetOrCreate(ctx context.Context, chatID int64) (S, error) {
	var s S
	data, err := r.client.Get(ctx, r.key(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		logger.LogEvent(ctx, logger.SVCSessions, slog.LevelDebug, "session.create",
			slog.Int64("chat_id", chatID),
			slog.String("backend", BackendRedis),
		)
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("load session %d: %w", chatID, err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		// an undecodable session cannot be resumed; start over
		logger.LogEvent(ctx, logger.SVCSessions, slog.LevelWarn, "session.decode",
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()),
		)
		var zero S
		return zero, nil
	}
	return s, nil
}

// Save stores the session with the configured TTL.
func (r *RedisStore[S]) Save(ctx context.Context, chatID int64, s S) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session %d: %w", chatID, err)
	}
	if err := r.client.Set(ctx, r.key(chatID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session %d: %w", chatID, err)
	}
	return nil
}

// Clear deletes the session key.
func (r *RedisStore[S]) Clear(ctx context.Context, chatID int64) error {
	if err := r.client.Del(ctx, r.key(chatID)).Err(); err != nil {
		return fmt.Errorf("clear session %d: %w", chatID, err)
	}
	return nil
}
