package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultPreferenceKey — ключ Redis по умолчанию.
const DefaultPreferenceKey = "webthreads:active_server"

// RedisPreferences хранит выбор сервера строкой под одним ключом Redis.
type RedisPreferences struct {
	rdb *redis.Client
	key string
}

// NewRedisPreferences создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если key пустой — используется DefaultPreferenceKey.
func NewRedisPreferences(ctx context.Context, redisURL, key string) (*RedisPreferences, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("preferences: parse redis url: %w", err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("preferences: redis ping: %w", err)
	}

	return newRedisPreferences(rdb, key), nil
}

func newRedisPreferences(rdb *redis.Client, key string) *RedisPreferences {
	if key == "" {
		key = DefaultPreferenceKey
	}
	return &RedisPreferences{rdb: rdb, key: key}
}

func (p *RedisPreferences) Load(ctx context.Context) (string, error) {
	v, err := p.rdb.Get(ctx, p.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNoPreference
		}
		return "", fmt.Errorf("preferences: redis get: %w", err)
	}
	return v, nil
}

// Save пишет ключ без TTL: выбор живёт до следующего переключения.
func (p *RedisPreferences) Save(ctx context.Context, key string) error {
	if err := p.rdb.Set(ctx, p.key, key, 0).Err(); err != nil {
		return fmt.Errorf("preferences: redis set: %w", err)
	}
	return nil
}

func (p *RedisPreferences) Close() error { return p.rdb.Close() }
