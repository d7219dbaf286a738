package auth

import (
	"context"
	"testing"
	"time"

	"classhub.org/internal/cache"
)

func newTestBackend(t *testing.T) cache.Backend {
	t.Helper()
	backend, err := cache.NewMemory(64, time.Minute)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	return backend
}

func TestSessionCacheRoundTrip(t *testing.T) {
	backend := newTestBackend(t)
	sessions := NewSessionCache(backend, time.Minute)
	ctx := context.Background()

	if _, ok := sessions.LookupUser(ctx, "tok"); ok {
		t.Fatalf("expected miss before store")
	}

	snapshot := UserSnapshot{ID: 7, Username: "alice", Role: RoleUser, Status: StatusActive}
	sessions.StoreUser(ctx, "tok", snapshot, 0)

	got, ok := sessions.LookupUser(ctx, "tok")
	if !ok {
		t.Fatalf("expected hit after store")
	}
	if *got != snapshot {
		t.Fatalf("snapshot mismatch: %+v", got)
	}

	sessions.DropUser(ctx, "tok")
	if _, ok := sessions.LookupUser(ctx, "tok"); ok {
		t.Fatalf("expected miss after drop")
	}
}

func TestSessionCacheEvictsCorruptEntry(t *testing.T) {
	backend := newTestBackend(t)
	sessions := NewSessionCache(backend, time.Minute)
	ctx := context.Background()

	if err := backend.Insert(ctx, "user:tok", "{not json", 0); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, ok := sessions.LookupUser(ctx, "tok"); ok {
		t.Fatalf("corrupt entry must read as a miss")
	}
	// the corrupt entry must be gone so re-population can proceed
	if res := backend.Get(ctx, "user:tok"); res.State != cache.NotFound {
		t.Fatalf("expected eviction, got %v", res.State)
	}
}

func TestSessionCacheUnavailableBackendIsAMiss(t *testing.T) {
	sessions := NewSessionCache(unavailableBackend{}, time.Minute)
	ctx := context.Background()

	if _, ok := sessions.LookupUser(ctx, "tok"); ok {
		t.Fatalf("outage must degrade to a miss")
	}
	// population against a dead backend must not panic or error out
	sessions.StoreUser(ctx, "tok", UserSnapshot{ID: 1}, 0)
}

// unavailableBackend simulates a reachable but failing cache.
type unavailableBackend struct{}

func (unavailableBackend) Get(context.Context, string) cache.Result {
	return cache.Result{State: cache.Unavailable}
}

func (unavailableBackend) Insert(context.Context, string, string, time.Duration) error {
	return context.DeadlineExceeded
}

func (unavailableBackend) Remove(context.Context, string) error { return context.DeadlineExceeded }

func (unavailableBackend) InvalidateAll(context.Context) error { return context.DeadlineExceeded }

func (unavailableBackend) SupportsPerEntryTTL() bool { return false }

func (unavailableBackend) Name() string { return "unavailable" }
