package auth

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"classhub.org/internal/cache"
	"classhub.org/internal/obs"
)

// Policy is a fixed-window rate-limit budget.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Built-in policies. The generic api budget applies to every
// authenticated route without a stricter policy of its own.
var (
	PolicyLogin      = Policy{Name: "login", Limit: 5, Window: time.Minute}
	PolicyRegister   = Policy{Name: "register", Limit: 3, Window: time.Minute}
	PolicyRefresh    = Policy{Name: "refresh", Limit: 10, Window: time.Minute}
	PolicyInviteCode = Policy{Name: "invite_code_lookup", Limit: 10, Window: time.Minute}
	PolicyUpload     = Policy{Name: "file_upload", Limit: 10, Window: time.Minute}
	PolicyAPI        = Policy{Name: "generic_api", Limit: 100, Window: time.Minute}
)

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	Reset      time.Time
}

// Counter is a fixed-window limiter over a cache backend. Check and
// increment are two separate cache operations, so concurrent requests
// may observe the same count and all be admitted; the limit is a bound
// on steady-state throughput, not an exact admission count.
type Counter struct {
	backend cache.Backend
	now     func() time.Time
}

func NewCounter(backend cache.Backend) *Counter {
	return &Counter{backend: backend, now: time.Now}
}

// Check consumes one unit of the identity's budget under the policy.
// A backend outage fails open: limiting protects capacity, it is not a
// correctness gate, and an unreachable cache must not take down auth.
func (c *Counter) Check(ctx context.Context, p Policy, identity string) Decision {
	key := p.Name + ":" + identity
	reset := c.now().Add(p.Window)

	count := 0
	switch res := c.backend.Get(ctx, key); res.State {
	case cache.Found:
		if n, err := strconv.Atoi(res.Value); err == nil && n > 0 {
			count = n
		}
	case cache.Unavailable:
		return Decision{Allowed: true, Limit: p.Limit, Remaining: p.Limit - 1, Reset: reset}
	}

	if count >= p.Limit {
		obs.RateLimited(p.Name)
		return Decision{
			Allowed:    false,
			Limit:      p.Limit,
			Remaining:  0,
			RetryAfter: p.Window,
			Reset:      reset,
		}
	}

	count++
	if err := c.backend.Insert(ctx, key, strconv.Itoa(count), p.Window); err != nil {
		obs.Logger().Warn("rate counter write failed",
			zap.String("policy", p.Name),
			zap.Error(err))
	}
	return Decision{
		Allowed:   true,
		Limit:     p.Limit,
		Remaining: p.Limit - count,
		Reset:     reset,
	}
}
