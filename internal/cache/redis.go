package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"jobscout/internal/config"
	"jobscout/internal/logging"
	"jobscout/pkg/models"
)

// RedisStore keeps entries as JSON under a key prefix. Each key expires in
// Redis at the end of its stale window, so eviction is left to the server.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttls   TTLs
	now    func() time.Time
	logger logging.Logger
}

// NewRedisClient builds a client from configuration, falling back to a
// local default when the URL does not parse
func NewRedisClient(cfg *config.Config) *redis.Client {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logging.GetGlobalLogger().Warn("Invalid redis url, using localhost", map[string]interface{}{
			"error": err.Error(),
		})
		opts = &redis.Options{Addr: "localhost:6379"}
	}

	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}

	timeout := cfg.Redis.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	opts.DialTimeout = timeout
	opts.ReadTimeout = timeout
	opts.WriteTimeout = timeout

	return redis.NewClient(opts)
}

// NewRedisStore wraps an existing client
func NewRedisStore(client *redis.Client, prefix string, ttls TTLs) (*RedisStore, error) {
	if err := ttls.Validate(); err != nil {
		return nil, err
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		ttls:   ttls,
		now:    time.Now,
		logger: logging.GetGlobalLogger(),
	}, nil
}

func (s *RedisStore) redisKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

func (s *RedisStore) Get(ctx context.Context, key string) (Lookup, error) {
	raw, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Lookup{State: Miss}, nil
	}
	if err != nil {
		return Lookup{}, fmt.Errorf("failed to read cache entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		// a corrupt entry is treated as absent and overwritten by the next put
		s.logger.Warn("Discarding unreadable cache entry", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return Lookup{State: Miss}, nil
	}

	return lookupOf(&entry, s.now()), nil
}

func (s *RedisStore) Put(ctx context.Context, key string, result models.ScrapeResult) error {
	entry := newEntry(key, result, s.now(), s.ttls)

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := s.client.Set(ctx, s.redisKey(key), data, s.ttls.Stale).Err(); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// InvalidateExpired is a no-op; Redis drops keys when their TTL lapses
func (s *RedisStore) InvalidateExpired(_ context.Context) (int, error) {
	return 0, nil
}

// Len counts keys under the store's prefix
func (s *RedisStore) Len(ctx context.Context) (int, error) {
	count := 0
	iter := s.client.Scan(ctx, 0, s.redisKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to scan cache keys: %w", err)
	}
	return count, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
