package reputation

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const bulkChunkSize = 1000

// RedisStore keeps the blocklist in a single Redis set
type RedisStore struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// NewRedisStore connects to Redis. An unreachable server is an error.
func NewRedisStore(ctx context.Context, redisURL, key string, logger *zap.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisStoreFromClient(client, key, logger), nil
}

// NewRedisStoreFromClient wraps an existing client
func NewRedisStoreFromClient(client *redis.Client, key string, logger *zap.Logger) *RedisStore {
	return &RedisStore{client: client, key: key, logger: logger}
}

// Contains reports whether a domain is blocklisted
func (s *RedisStore) Contains(ctx context.Context, domain string) bool {
	ok, err := s.client.SIsMember(ctx, s.key, strings.ToLower(strings.TrimSpace(domain))).Result()
	if err != nil {
		s.logger.Warn("Reputation lookup failed", zap.Error(err), zap.String("domain", domain))
		return false
	}
	return ok
}

// BulkAdd inserts domains with MULTI/EXEC and returns how many were new
func (s *RedisStore) BulkAdd(ctx context.Context, domains []string) (int, error) {
	normalized := Normalize(domains)
	if len(normalized) == 0 {
		return 0, nil
	}

	var cmds []*redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for start := 0; start < len(normalized); start += bulkChunkSize {
			end := min(start+bulkChunkSize, len(normalized))
			members := make([]interface{}, 0, end-start)
			for _, d := range normalized[start:end] {
				members = append(members, d)
			}
			cmds = append(cmds, pipe.SAdd(ctx, s.key, members...))
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add domains: %w", err)
	}

	var inserted int64
	for _, cmd := range cmds {
		inserted += cmd.Val()
	}
	return int(inserted), nil
}

// Size returns the number of distinct entries
func (s *RedisStore) Size(ctx context.Context) (int64, error) {
	n, err := s.client.SCard(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count domains: %w", err)
	}
	return n, nil
}

// Seed inserts domains only when the key does not exist
func (s *RedisStore) Seed(ctx context.Context, domains []string) error {
	exists, err := s.client.Exists(ctx, s.key).Result()
	if err != nil {
		return fmt.Errorf("failed to check blocklist key: %w", err)
	}
	if exists > 0 {
		s.logger.Debug("Blocklist already present, skipping seed", zap.String("key", s.key))
		return nil
	}

	inserted, err := s.BulkAdd(ctx, domains)
	if err != nil {
		return err
	}
	s.logger.Info("Seeded reputation store", zap.String("key", s.key), zap.Int("inserted", inserted))
	return nil
}

// Close closes the Redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
