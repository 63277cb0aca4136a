package session

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Create(ctx, "sess-1", 7, time.Hour); err != nil {
		t.Fatalf("create: %v", err)
	}
	ok, err := store.Exists(ctx, "sess-1")
	if err != nil || !ok {
		t.Fatalf("expected live session, ok=%v err=%v", ok, err)
	}

	if err := store.Revoke(ctx, "sess-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, _ = store.Exists(ctx, "sess-1")
	if ok {
		t.Fatalf("expected revoked session to be gone")
	}
}

func TestMemoryStoreExpires(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_ = store.Create(ctx, "sess-2", 1, 10*time.Minute)
	now = now.Add(11 * time.Minute)

	ok, _ := store.Exists(ctx, "sess-2")
	if ok {
		t.Fatalf("expected expired session to be rejected")
	}
}
