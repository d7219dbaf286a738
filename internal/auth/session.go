package auth

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"classhub.org/internal/cache"
	"classhub.org/internal/obs"
)

const sessionKeyPrefix = "user:"

// SessionCache keeps user snapshots keyed by bearer token so that warm
// requests skip the database entirely. All cache trouble degrades to a
// miss; the caller re-hydrates from the user store.
type SessionCache struct {
	backend    cache.Backend
	defaultTTL time.Duration
}

func NewSessionCache(backend cache.Backend, defaultTTL time.Duration) *SessionCache {
	return &SessionCache{backend: backend, defaultTTL: defaultTTL}
}

// LookupUser returns the cached snapshot for the token. A corrupt entry
// is evicted and reported as a miss so re-hydration is never blocked.
func (s *SessionCache) LookupUser(ctx context.Context, token string) (*UserSnapshot, bool) {
	res := s.backend.Get(ctx, sessionKeyPrefix+token)
	if res.State != cache.Found {
		return nil, false
	}
	var snapshot UserSnapshot
	if err := json.Unmarshal([]byte(res.Value), &snapshot); err != nil {
		obs.Logger().Warn("evicting undecodable session entry", zap.Error(err))
		if err := s.backend.Remove(ctx, sessionKeyPrefix+token); err != nil {
			obs.Logger().Warn("session evict failed", zap.Error(err))
		}
		return nil, false
	}
	return &snapshot, true
}

// StoreUser caches the snapshot under the token. Population is
// best-effort: failures are logged and swallowed.
func (s *SessionCache) StoreUser(ctx context.Context, token string, snapshot UserSnapshot, ttl time.Duration) {
	if ttl == 0 {
		ttl = s.defaultTTL
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		obs.Logger().Warn("session encode failed", zap.Error(err))
		return
	}
	if err := s.backend.Insert(ctx, sessionKeyPrefix+token, string(data), ttl); err != nil {
		obs.Logger().Warn("session store failed", zap.Error(err))
	}
}

// DropUser removes the cached snapshot, e.g. on logout.
func (s *SessionCache) DropUser(ctx context.Context, token string) {
	if err := s.backend.Remove(ctx, sessionKeyPrefix+token); err != nil {
		obs.Logger().Warn("session drop failed", zap.Error(err))
	}
}
