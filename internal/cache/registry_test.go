package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRegistryRegisterOverwrites(t *testing.T) {
	r := NewRegistry()
	r.Register("x", func(context.Context, Config) (Backend, error) {
		return nil, errors.New("first")
	})
	r.Register("x", func(context.Context, Config) (Backend, error) {
		return NewMemory(1, 0)
	})
	ctor, ok := r.Lookup("x")
	if !ok {
		t.Fatalf("expected constructor for x")
	}
	if _, err := ctor(context.Background(), Config{}); err != nil {
		t.Fatalf("expected the later registration to win: %v", err)
	}
	if _, ok := r.Lookup("missing"); ok {
		t.Fatalf("unexpected constructor for missing name")
	}
}

func TestOpenUnknownNameFallsBack(t *testing.T) {
	r := DefaultRegistry()
	backend, err := r.Open(context.Background(), Config{Kind: "cluster", DefaultTTL: time.Minute})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if backend.Name() != KindMemory {
		t.Fatalf("expected fallback to %s, got %s", KindMemory, backend.Name())
	}
	// the fallback must be a working cache, not a stub
	ctx := context.Background()
	if err := backend.Insert(ctx, "k", "v", 0); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if res := backend.Get(ctx, "k"); res.State != Found || res.Value != "v" {
		t.Fatalf("fallback backend does not round-trip: %+v", res)
	}
}

func TestOpenConstructionFailureFallsBack(t *testing.T) {
	r := NewRegistry()
	r.Register(KindRedis, func(context.Context, Config) (Backend, error) {
		return nil, errors.New("connection refused")
	})
	r.Register(KindMemory, func(_ context.Context, cfg Config) (Backend, error) {
		return NewMemory(cfg.MaxEntries, cfg.DefaultTTL)
	})
	backend, err := r.Open(context.Background(), Config{Kind: KindRedis})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if backend.Name() != KindMemory {
		t.Fatalf("expected fallback to %s, got %s", KindMemory, backend.Name())
	}
}

func TestOpenFallbackFailureIsFatal(t *testing.T) {
	r := NewRegistry()
	r.Register(KindRedis, func(context.Context, Config) (Backend, error) {
		return nil, errors.New("connection refused")
	})
	if _, err := r.Open(context.Background(), Config{Kind: KindRedis}); err == nil {
		t.Fatalf("expected error when fallback is unavailable")
	}

	r.Register(KindMemory, func(context.Context, Config) (Backend, error) {
		return nil, errors.New("out of memory")
	})
	if _, err := r.Open(context.Background(), Config{Kind: KindRedis}); err == nil {
		t.Fatalf("expected error when fallback construction fails")
	}
}

func TestOpenMemoryFailureDoesNotRetry(t *testing.T) {
	calls := 0
	r := NewRegistry()
	r.Register(KindMemory, func(context.Context, Config) (Backend, error) {
		calls++
		return nil, errors.New("boom")
	})
	if _, err := r.Open(context.Background(), Config{Kind: KindMemory}); err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected a single construction attempt, got %d", calls)
	}
}
