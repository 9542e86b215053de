// Package memory provides an in-memory storage.Store backed by
// github.com/hashicorp/golang-lru/v2.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/reoring/restkit/storage"
)

// DefaultSize is the capacity used when New is given a non-positive size.
const DefaultSize = 4096

// Store keeps at most size items, evicting the least recently used.
type Store struct {
	mu     sync.RWMutex
	cache  *lru.Cache[string, *storage.Item]
	stop   chan struct{}
	closed bool
}

// New creates a store and starts a background sweep of expired items that
// runs every interval (5 minutes when interval <= 0) until Close.
func New(size int, interval time.Duration) (*Store, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	cache, err := lru.New[string, *storage.Item](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	s := &Store{cache: cache, stop: make(chan struct{})}
	go s.sweep(interval)
	return s, nil
}

// Get implements storage.Store.
func (s *Store) Get(ctx context.Context, key string) (*storage.Item, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, storage.ErrClosed
	}
	item, ok := s.cache.Get(key)
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if item.IsExpired() {
		s.mu.Lock()
		s.cache.Remove(key)
		s.mu.Unlock()
		return nil, nil
	}
	return item, nil
}

// Set implements storage.Store. data is copied.
func (s *Store) Set(ctx context.Context, key string, data []byte, opts ...storage.Option) error {
	o := storage.ApplyOptions(opts...)
	now := time.Now()
	item := &storage.Item{Data: append([]byte(nil), data...), CreatedAt: now}
	if o.TTL != nil {
		exp := now.Add(*o.TTL)
		item.ExpiresAt = &exp
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	s.cache.Add(key, item)
	return nil
}

// Delete implements storage.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	s.cache.Remove(key)
	return nil
}

// Len returns the number of items held, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cache.Len()
}

// Close stops the sweep and drops all items.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.stop)
	s.cache.Purge()
	return nil
}

func (s *Store) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for _, key := range s.cache.Keys() {
				if item, ok := s.cache.Peek(key); ok && item.ExpiresAt != nil && now.After(*item.ExpiresAt) {
					s.cache.Remove(key)
				}
			}
			s.mu.Unlock()
		}
	}
}

var _ storage.Store = (*Store)(nil)
