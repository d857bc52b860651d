package cache

import (
	"context"
	"crypto/tls"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTimeout   = 5 * time.Second
	defaultScanCount = 100

	// keyNamespace isolates Circle keys from other tenants of the same Redis.
	keyNamespace = "circle:"
)

// RedisConfig captures the connection parameters for the Redis-backed store.
type RedisConfig struct {
	Address  string
	Username string
	Password string
	DB       int
	TLS      bool
	Timeout  time.Duration
}

// RedisStore implements Store on top of go-redis. Prefix invalidation uses
// SCAN-cursor enumeration in fixed-size batches, never a single unbounded KEYS call.
type RedisStore struct {
	client    *redis.Client
	scanCount int64
}

// NewRedisStore creates a Redis-backed store. The connection is verified eagerly so
// misconfiguration surfaces during application start-up.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	cfg.Address = strings.TrimSpace(cfg.Address)
	if cfg.Address == "" {
		return nil, errors.New("cache: redis address is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	opts := &redis.Options{
		Addr:         cfg.Address,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &RedisStore{client: client, scanCount: defaultScanCount}, nil
}

// NewRedisStoreWithClient wraps an existing client, primarily for tests.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, scanCount: defaultScanCount}
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Get retrieves the value associated with a key. A missing or expired key reports
// found=false without error.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, s.prefixed(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set stores a value under the key with the supplied TTL.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefixed(key), value, ttl).Err()
}

// DeletePrefix removes every key whose name starts with prefix and returns the total
// number of keys deleted. Enumeration is cursored so large keyspaces are walked in
// bounded batches. A prefix matching nothing deletes zero keys and is not an error.
func (s *RedisStore) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	match := s.prefixed(prefix) + "*"

	// SCAN only guarantees keys present for the whole iteration are returned, and
	// deleting mid-walk can shift later batches past the cursor. Each pass finishes
	// a full iteration before deleting, then restarts until a pass matches nothing.
	var deleted int64
	for {
		var (
			cursor uint64
			keys   []string
		)
		for {
			batch, next, err := s.client.Scan(ctx, cursor, match, s.scanCount).Result()
			if err != nil {
				return deleted, err
			}
			keys = append(keys, batch...)
			cursor = next
			if cursor == 0 {
				break
			}
		}

		if len(keys) == 0 {
			return deleted, nil
		}

		for start := 0; start < len(keys); start += int(s.scanCount) {
			end := start + int(s.scanCount)
			if end > len(keys) {
				end = len(keys)
			}
			removed, err := s.client.Del(ctx, keys[start:end]...).Result()
			if err != nil {
				return deleted, err
			}
			deleted += removed
		}
	}
}

// IncrementWithTTL increments the counter for key, starting a fresh expiry window on
// the first increment. It returns the current count and the remaining time-to-live.
func (s *RedisStore) IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	prefixedKey := s.prefixed(key)

	count, err := s.client.Incr(ctx, prefixedKey).Result()
	if err != nil {
		return 0, 0, err
	}

	if count == 1 {
		if err := s.client.PExpire(ctx, prefixedKey, window).Err(); err != nil {
			return 0, 0, err
		}
	}

	ttl, err := s.client.PTTL(ctx, prefixedKey).Result()
	if err != nil || ttl < 0 {
		return count, window, nil
	}
	return count, ttl, nil
}

func (s *RedisStore) prefixed(key string) string {
	if strings.HasPrefix(key, keyNamespace) {
		return key
	}
	return keyNamespace + key
}
