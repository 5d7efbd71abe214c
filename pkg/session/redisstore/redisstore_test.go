package redisstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"orderdesk/pkg/session"
)

func TestStoreIntegration(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping redis integration test")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	store := New(rdb)
	now := time.Now().UTC()
	sess := session.Session{ID: "it-" + now.Format("150405.000000"), UserID: "it-user", UserEmail: "it@example.com", CreatedAt: now, ExpiresAt: now.Add(time.Minute)}

	if err := store.Put(ctx, sess); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.UserEmail != sess.UserEmail {
		t.Fatalf("expected %s, got %s", sess.UserEmail, got.UserEmail)
	}
	list, err := store.ListByUser(ctx, "it-user")
	if err != nil || len(list) == 0 {
		t.Fatalf("list: %v len=%d", err, len(list))
	}
	removed, err := store.Delete(ctx, sess.ID)
	if err != nil || !removed {
		t.Fatalf("delete: removed=%v err=%v", removed, err)
	}
	if _, err := store.Get(ctx, sess.ID); err != session.ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
