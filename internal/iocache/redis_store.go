package iocache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/huangsam/storefront/internal/contract"
	"github.com/huangsam/storefront/schema"
	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces every key written by the store.
const redisKeyPrefix = "storefront:"

// Hash fields of one stored entry.
const (
	fieldValue     = "value"
	fieldVersion   = "version"
	fieldTimestamp = "timestamp"
)

// RedisStore keeps each entry as a hash under a namespaced key.
type RedisStore struct {
	rdb *redis.Client
}

var _ contract.KVStore = &RedisStore{} // Compile-time check

// NewRedisStore connects to the redis:// URL in connStr.
func NewRedisStore(connStr string) (*RedisStore, error) {
	opts, err := redis.ParseURL(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w. Check connection format: redis://[:password@]host:port/db", err)
	}
	return NewRedisStoreWithClient(context.Background(), redis.NewClient(opts))
}

// NewRedisStoreWithClient wraps an existing client after checking it answers.
func NewRedisStoreWithClient(ctx context.Context, rdb *redis.Client) (*RedisStore, error) {
	if rdb == nil {
		return nil, errors.New("redis client must be non-nil")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis. Check that the server is running: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

// Get retrieves a value by key from the store.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, int, int64, error) {
	fields, err := s.rdb.HGetAll(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return nil, 0, 0, err
	}
	raw, ok := fields[fieldValue]
	if !ok {
		return nil, 0, 0, contract.ErrKeyNotFound
	}
	version, err := strconv.Atoi(fields[fieldVersion])
	if err != nil {
		return nil, 0, 0, &contract.SerializationError{Source: "redis " + key, Err: err}
	}
	ts, err := strconv.ParseInt(fields[fieldTimestamp], 10, 64)
	if err != nil {
		return nil, 0, 0, &contract.SerializationError{Source: "redis " + key, Err: err}
	}
	return []byte(raw), version, ts, nil
}

// Set inserts or replaces a key/value pair in the store.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, version int, timestamp int64) error {
	return s.rdb.HSet(ctx, redisKeyPrefix+key,
		fieldValue, value,
		fieldVersion, version,
		fieldTimestamp, timestamp,
	).Err()
}

// Delete removes a key from the store.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, redisKeyPrefix+key).Err()
}

// Clear removes every key the store owns.
func (s *RedisStore) Clear(ctx context.Context) error {
	keys, err := s.scanKeys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// GetStatus returns status information about the store.
func (s *RedisStore) GetStatus(ctx context.Context) (schema.StorageStatus, error) {
	status := schema.StorageStatus{
		Backend:   string(schema.RedisBackend),
		Connected: s.rdb.Ping(ctx).Err() == nil,
	}
	if !status.Connected {
		return status, nil
	}

	keys, err := s.scanKeys(ctx)
	if err != nil {
		return status, fmt.Errorf("failed to list keys: %w", err)
	}
	status.TotalEntries = len(keys)

	var newest, oldest int64
	for _, k := range keys {
		raw, err := s.rdb.HGet(ctx, k, fieldTimestamp).Result()
		if err != nil {
			continue
		}
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		if newest == 0 || ts > newest {
			newest = ts
		}
		if oldest == 0 || ts < oldest {
			oldest = ts
		}
		if n, err := s.rdb.MemoryUsage(ctx, k).Result(); err == nil {
			status.TableSizeBytes += n
		}
	}
	if newest > 0 {
		status.LastEntryTime = time.Unix(newest, 0)
		status.OldestEntryTime = time.Unix(oldest, 0)
	}
	return status, nil
}

// scanKeys lists every namespaced key without blocking the server.
func (s *RedisStore) scanKeys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.rdb.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}
