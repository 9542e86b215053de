// Package redis provides a storage.Store backed by Redis through
// github.com/redis/go-redis/v9.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"

	"github.com/reoring/restkit/storage"
)

// DefaultKeyPrefix namespaces every key written by the store.
const DefaultKeyPrefix = "restkit:storage:"

// Config configures the Redis store. When Client is nil one is created from
// Addr and DB.
type Config struct {
	Client *redis.Client

	// Addr like "localhost:6379". ENV: REDIS_ADDR
	Addr string `env:"REDIS_ADDR,default=localhost:6379"`
	// DB selects the logical database. ENV: REDIS_DB
	DB int `env:"REDIS_DB,default=0"`
	// KeyPrefix for all keys. ENV: RESTKIT_STORAGE_PREFIX
	KeyPrefix string `env:"RESTKIT_STORAGE_PREFIX,default=restkit:storage:"`
}

// Store implements storage.Store on Redis.
type Store struct {
	client    *redis.Client
	keyPrefix string
}

type storedItem struct {
	Data      []byte     `json:"data"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// New creates a store. It does not contact the server.
func New(cfg Config) (*Store, error) {
	client := cfg.Client
	if client == nil {
		addr := cfg.Addr
		if addr == "" {
			addr = "localhost:6379"
		}
		client = redis.NewClient(&redis.Options{Addr: addr, DB: cfg.DB})
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{client: client, keyPrefix: prefix}, nil
}

// NewFromEnv builds a store from REDIS_ADDR, REDIS_DB and
// RESTKIT_STORAGE_PREFIX and verifies the connection.
func NewFromEnv(ctx context.Context) (*Store, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("redis config: %w", err)
	}
	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if err := s.client.Ping(ctx).Err(); err != nil {
		_ = s.client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return s, nil
}

// Get implements storage.Store.
func (s *Store) Get(ctx context.Context, key string) (*storage.Item, error) {
	redisKey := s.keyPrefix + key
	raw, err := s.client.Get(ctx, redisKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get key %s: %w", redisKey, err)
	}
	var it storedItem
	if err := json.Unmarshal(raw, &it); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stored data: %w", err)
	}
	item := &storage.Item{Data: it.Data, CreatedAt: it.CreatedAt, ExpiresAt: it.ExpiresAt}
	if item.IsExpired() {
		s.client.Del(ctx, redisKey)
		return nil, nil
	}
	return item, nil
}

// Set implements storage.Store.
func (s *Store) Set(ctx context.Context, key string, data []byte, opts ...storage.Option) error {
	o := storage.ApplyOptions(opts...)
	redisKey := s.keyPrefix + key
	now := time.Now()
	it := storedItem{Data: data, CreatedAt: now}
	var ttl time.Duration
	if o.TTL != nil {
		exp := now.Add(*o.TTL)
		it.ExpiresAt = &exp
		ttl = *o.TTL
	}
	raw, err := json.Marshal(it)
	if err != nil {
		return fmt.Errorf("failed to marshal storage item: %w", err)
	}
	if err := s.client.Set(ctx, redisKey, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", redisKey, err)
	}
	return nil
}

// Delete implements storage.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	redisKey := s.keyPrefix + key
	if err := s.client.Del(ctx, redisKey).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", redisKey, err)
	}
	return nil
}

// Close closes the Redis client.
func (s *Store) Close() error { return s.client.Close() }

var _ storage.Store = (*Store)(nil)
