package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"classhub.org/internal/auth"
)

type rateInfoContextKey struct{}

// RateLimitInfoFromContext exposes the admission decision to handlers
// that want to surface quota details in their responses.
func RateLimitInfoFromContext(ctx context.Context) (auth.Decision, bool) {
	v, ok := ctx.Value(rateInfoContextKey{}).(*auth.Decision)
	if !ok || v == nil {
		return auth.Decision{}, false
	}
	return *v, true
}

// RateLimit enforces the policy per identity: the authenticated user
// id when present, otherwise the client address.
func RateLimit(counter *auth.Counter, policy auth.Policy) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := rateIdentity(r)
			decision := counter.Check(r.Context(), policy, identity)
			if !decision.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(decision.RetryAfter.Seconds())))
				w.Header().Set("X-RateLimit-Remaining", "0")
				writeError(w, http.StatusTooManyRequests, codeRateLimited, "too many requests")
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			ctx := context.WithValue(r.Context(), rateInfoContextKey{}, &decision)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func rateIdentity(r *http.Request) string {
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		return "user:" + strconv.FormatInt(identity.UserID, 10)
	}
	return "ip:" + clientIP(r)
}
