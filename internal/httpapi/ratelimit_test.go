package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"classhub.org/internal/auth"
	"classhub.org/internal/cache"
)

func newTestCounter(t *testing.T) *auth.Counter {
	t.Helper()
	backend, err := cache.NewMemory(128, time.Minute)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	return auth.NewCounter(backend)
}

func TestRateLimitCountsDownThenDenies(t *testing.T) {
	policy := auth.Policy{Name: "test", Limit: 3, Window: time.Minute}
	handler := RateLimit(newTestCounter(t), policy)(okHandler())

	for want := policy.Limit - 1; want >= 0; want-- {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("status %d, want 200", rr.Code)
		}
		if got := rr.Header().Get("X-RateLimit-Remaining"); got != strconv.Itoa(want) {
			t.Fatalf("X-RateLimit-Remaining=%q, want %d", got, want)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status %d, want 429", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "60" {
		t.Fatalf("Retry-After=%q, want 60", got)
	}
	if got := rr.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("X-RateLimit-Remaining=%q, want 0", got)
	}
	env := decodeEnvelope(t, rr.Result())
	if env.Code != codeRateLimited {
		t.Fatalf("code %d, want %d", env.Code, codeRateLimited)
	}
}

func TestRateLimitBudgetsArePerAddress(t *testing.T) {
	policy := auth.Policy{Name: "test", Limit: 1, Window: time.Minute}
	handler := RateLimit(newTestCounter(t), policy)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("first caller: status %d, want 200", rr.Code)
	}

	// same address is now out of budget
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:9999"
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("same address: status %d, want 429", rr.Code)
	}

	// a different address has its own budget
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("other address: status %d, want 200", rr.Code)
	}
}

func TestRateLimitPrefersUserIdentity(t *testing.T) {
	policy := auth.Policy{Name: "test", Limit: 1, Window: time.Minute}
	handler := RateLimit(newTestCounter(t), policy)(okHandler())

	// two authenticated users behind the same address do not share a budget
	for _, userID := range []int64{7, 8} {
		req := identityRequest(t, auth.Identity{UserID: userID, Role: auth.RoleUser})
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("user %d: status %d, want 200", userID, rr.Code)
		}
	}

	// the same user is limited regardless of address
	req := identityRequest(t, auth.Identity{UserID: 7, Role: auth.RoleUser})
	req.RemoteAddr = "10.9.9.9:1234"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("repeat user: status %d, want 429", rr.Code)
	}
}

func TestRateLimitDecisionOnContext(t *testing.T) {
	policy := auth.Policy{Name: "test", Limit: 5, Window: time.Minute}
	var decision auth.Decision
	var found bool
	handler := RateLimit(newTestCounter(t), policy)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision, found = RateLimitInfoFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !found {
		t.Fatal("no decision on context")
	}
	if !decision.Allowed || decision.Limit != 5 || decision.Remaining != 4 {
		t.Fatalf("unexpected decision: %+v", decision)
	}
}
