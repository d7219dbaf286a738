package cache

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"classhub.org/internal/obs"
)

// Registry names for the built-in backends.
const (
	KindRedis  = "redis"
	KindMemory = "memory"
)

// Constructor builds a backend from configuration.
type Constructor func(ctx context.Context, cfg Config) (Backend, error)

// Registry maps backend names to constructors. Registration must finish
// before the first Lookup; the process startup ordering guarantees that,
// the registry itself does not.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// DefaultRegistry returns a registry with both built-in backends.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(KindRedis, func(ctx context.Context, cfg Config) (Backend, error) {
		return NewRedis(ctx, cfg)
	})
	r.Register(KindMemory, func(_ context.Context, cfg Config) (Backend, error) {
		return NewMemory(cfg.MaxEntries, cfg.DefaultTTL)
	})
	return r
}

// Register inserts or overwrites the constructor for name.
func (r *Registry) Register(name string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[name] = ctor
}

// Lookup returns the constructor registered under name.
func (r *Registry) Lookup(name string) (Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.ctors[name]
	return ctor, ok
}

// Open builds the configured backend, degrading to the in-process
// backend when the configured one is unknown or fails to construct.
// A failing fallback is fatal: the caller should abort startup.
func (r *Registry) Open(ctx context.Context, cfg Config) (Backend, error) {
	name := cfg.Kind
	if name == "" {
		name = KindMemory
	}

	ctor, ok := r.Lookup(name)
	if !ok {
		obs.Logger().Warn("cache backend is not registered, using in-process fallback",
			zap.String("backend", name))
		return r.openFallback(ctx, cfg)
	}

	backend, err := ctor(ctx, cfg)
	if err != nil {
		if name == KindMemory {
			return nil, fmt.Errorf("open cache backend %q: %w", name, err)
		}
		obs.Logger().Warn("cache backend failed to open, using in-process fallback",
			zap.String("backend", name),
			zap.Error(err))
		return r.openFallback(ctx, cfg)
	}

	obs.Logger().Info("cache backend ready", zap.String("backend", backend.Name()))
	return backend, nil
}

func (r *Registry) openFallback(ctx context.Context, cfg Config) (Backend, error) {
	ctor, ok := r.Lookup(KindMemory)
	if !ok {
		return nil, fmt.Errorf("fallback cache backend %q is not registered", KindMemory)
	}
	backend, err := ctor(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open fallback cache backend %q: %w", KindMemory, err)
	}
	obs.Logger().Info("cache backend ready", zap.String("backend", backend.Name()))
	return backend, nil
}
