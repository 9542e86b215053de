package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reoring/restkit"
	"github.com/reoring/restkit/resource"
	"github.com/reoring/restkit/storage"
)

func TestRedisStore(t *testing.T) {
	// Skip test if Redis is not available
	client := redis.NewClient(&redis.Options{
		Addr: "127.0.0.1:6379",
		DB:   3,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer client.FlushDB(ctx)

	s, err := New(Config{Client: client, KeyPrefix: "restkit:test:"})
	if err != nil {
		t.Fatalf("Failed to create Redis store: %v", err)
	}
	defer s.Close()

	if err := s.Set(ctx, "users/1", []byte(`{"id":"1"}`)); err != nil {
		t.Fatalf("Failed to set data: %v", err)
	}
	item, err := s.Get(ctx, "users/1")
	if err != nil || item == nil {
		t.Fatalf("Failed to get data: %v, %v", item, err)
	}
	if string(item.Data) != `{"id":"1"}` {
		t.Fatalf("Unexpected data: %s", item.Data)
	}

	tr := resource.NewStorage("app", s)
	created, err := tr.Post(ctx, "app/users", restkit.Object{"name": "ann"}, restkit.WithEntityIDName("id"))
	if err != nil || created.Status != 201 {
		t.Fatalf("Failed to post through the storage transport: %v, %v", created, err)
	}
	all, err := tr.AllEntities(ctx)
	if err != nil || len(all) != 1 || all[0]["name"] != "ann" {
		t.Fatalf("Unexpected entities: %v, %v", all, err)
	}

	if err := s.Set(ctx, "ttl", []byte("x"), storage.WithTTL(50*time.Millisecond)); err != nil {
		t.Fatalf("Failed to set data: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if item, _ := s.Get(ctx, "ttl"); item != nil {
		t.Fatalf("Expected expired item to be gone")
	}

	if err := s.Delete(ctx, "users/1"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if item, _ := s.Get(ctx, "users/1"); item != nil {
		t.Fatalf("Expected key to be deleted")
	}
}

func TestNew_Defaults(t *testing.T) {
	s, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if s.keyPrefix != DefaultKeyPrefix {
		t.Fatalf("unexpected prefix %q", s.keyPrefix)
	}
}
