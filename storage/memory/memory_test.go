package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/reoring/restkit/storage"
)

func TestMemoryStore(t *testing.T) {
	s, err := New(8, time.Hour)
	if err != nil {
		t.Fatalf("Failed to create memory store: %v", err)
	}
	defer s.Close()

	t.Run("SetAndGet", func(t *testing.T) { testSetAndGet(t, s) })
	t.Run("GetNonExistent", func(t *testing.T) { testGetNonExistent(t, s) })
	t.Run("TTL", func(t *testing.T) { testTTL(t, s) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, s) })
}

func testSetAndGet(t *testing.T, s storage.Store) {
	ctx := context.Background()
	data := []byte(`{"id":"1"}`)
	if err := s.Set(ctx, "users/1", data); err != nil {
		t.Fatalf("Failed to set data: %v", err)
	}
	data[0] = 'x' // stored value must be a copy

	item, err := s.Get(ctx, "users/1")
	if err != nil {
		t.Fatalf("Failed to get data: %v", err)
	}
	if item == nil {
		t.Fatal("Expected item to exist, got nil")
	}
	if string(item.Data) != `{"id":"1"}` {
		t.Fatalf("Unexpected data: %s", item.Data)
	}
	if item.ExpiresAt != nil {
		t.Fatalf("Expected no expiration")
	}
}

func testGetNonExistent(t *testing.T, s storage.Store) {
	item, err := s.Get(context.Background(), "missing")
	if err != nil || item != nil {
		t.Fatalf("Expected nil item and nil error, got %v, %v", item, err)
	}
}

func testTTL(t *testing.T, s storage.Store) {
	ctx := context.Background()
	if err := s.Set(ctx, "short", []byte("x"), storage.WithTTL(10*time.Millisecond)); err != nil {
		t.Fatalf("Failed to set data: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	item, err := s.Get(ctx, "short")
	if err != nil || item != nil {
		t.Fatalf("Expected expired item to be gone, got %v, %v", item, err)
	}
}

func testDelete(t *testing.T, s storage.Store) {
	ctx := context.Background()
	_ = s.Set(ctx, "k", []byte("v"))
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if item, _ := s.Get(ctx, "k"); item != nil {
		t.Fatalf("Expected key to be deleted")
	}
	if err := s.Delete(ctx, "never-set"); err != nil {
		t.Fatalf("Deleting a missing key should succeed: %v", err)
	}
}

func TestMemoryStore_EvictsLRU(t *testing.T) {
	s, err := New(2, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()
	_ = s.Set(ctx, "a", []byte("1"))
	_ = s.Set(ctx, "b", []byte("2"))
	_, _ = s.Get(ctx, "a")
	_ = s.Set(ctx, "c", []byte("3"))
	if item, _ := s.Get(ctx, "b"); item != nil {
		t.Fatalf("Expected least recently used key to be evicted")
	}
	if s.Len() != 2 {
		t.Fatalf("Expected 2 items, got %d", s.Len())
	}
}

func TestMemoryStore_Closed(t *testing.T) {
	s, err := New(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close should be idempotent: %v", err)
	}
	if _, err := s.Get(context.Background(), "a"); !errors.Is(err, storage.ErrClosed) {
		t.Fatalf("Expected ErrClosed, got %v", err)
	}
}
