// Package storage defines the key-value store behind the storage-backed
// transport (resource.Storage).
package storage

import (
	"context"
	"errors"
	"time"
)

// Store persists opaque values by key.
type Store interface {
	// Get returns nil when the key does not exist or has expired. Errors are
	// reserved for backend failures.
	Get(ctx context.Context, key string) (*Item, error)

	// Set stores data under key, replacing any previous value.
	Set(ctx context.Context, key string, data []byte, opts ...Option) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Item is a stored value with metadata.
type Item struct {
	Data      []byte
	CreatedAt time.Time
	ExpiresAt *time.Time // nil = no expiration
}

// IsExpired reports whether the item's TTL has elapsed.
func (i *Item) IsExpired() bool {
	return i.ExpiresAt != nil && time.Now().After(*i.ExpiresAt)
}

// Option configures a Set.
type Option func(*Options)

// Options holds per-call settings.
type Options struct {
	TTL *time.Duration
}

// WithTTL expires the value after ttl.
func WithTTL(ttl time.Duration) Option {
	return func(o *Options) { o.TTL = &ttl }
}

// ApplyOptions folds opts into Options.
func ApplyOptions(opts ...Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("storage: store is closed")
