package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"classhub.org/internal/audit"
	"classhub.org/internal/auth"
	"classhub.org/internal/obs"
)

const maxBodyBytes = 1 << 20

// ReadyProbe reports whether downstream dependencies answer.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer: gates, policies and handlers wired onto one mux.
type API struct {
	mux        *http.ServeMux
	service    *auth.Service
	store      auth.Store
	counter    *auth.Counter
	classGate  *ClassGate
	readyProbe ReadyProbe
	version    string
}

func New(service *auth.Service, store auth.Store, counter *auth.Counter, rp ReadyProbe, version string) *API {
	a := &API{
		mux:        http.NewServeMux(),
		service:    service,
		store:      store,
		counter:    counter,
		classGate:  NewClassGate(store),
		readyProbe: rp,
		version:    version,
	}

	// health/ready/metrics (public)
	a.mux.HandleFunc("GET /healthz", a.Healthz)
	a.mux.HandleFunc("GET /readyz", a.Ready)
	a.mux.Handle("GET /metrics", obs.Handler())

	// account lifecycle (public, strict per-route budgets)
	a.handle("POST /api/v1/auth/register", a.handleRegister,
		RateLimit(a.counter, auth.PolicyRegister))
	a.handle("POST /api/v1/auth/login", a.handleLogin,
		RateLimit(a.counter, auth.PolicyLogin))
	a.handle("POST /api/v1/auth/refresh", a.handleRefresh,
		RateLimit(a.counter, auth.PolicyRefresh))
	a.handle("POST /api/v1/auth/logout", a.handleLogout,
		RateLimit(a.counter, auth.PolicyAPI))

	// authenticated surface
	a.handle("GET /api/v1/profile", a.handleProfile,
		RateLimit(a.counter, auth.PolicyAPI))
	a.handle("PUT /api/v1/admin/users/{user_id}/status", a.handleUserStatus,
		RequireRole(auth.RoleAdmin),
		RateLimit(a.counter, auth.PolicyAPI))
	a.handle("GET /api/v1/classes/{class_id}/members", a.handleClassMembers,
		a.classGate.RequireAny(auth.ClassMemberRoles...),
		RateLimit(a.counter, auth.PolicyAPI))

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeBadRequest, "not found")
	})

	return a
}

// handle registers a handler behind per-route middleware, outermost first.
func (a *API) handle(pattern string, h http.HandlerFunc, mws ...Middleware) {
	var handler http.Handler = h
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	a.mux.Handle(pattern, handler)
}

// Handler composes the full request pipeline. The auth gate sits inside
// the ambient middleware so every route-level gate can rely on it.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = obs.Instrument(h)
	h = MaxBodyBytes(h, maxBodyBytes)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return h
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "ok", map[string]any{
		"service": "classhub-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, codeInternal, "not ready")
		return
	}
	writeData(w, http.StatusOK, "ready", nil)
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeTokenMissing, "authentication required")
		return
	}
	user, err := a.store.Users(r.Context()).Find(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternal, "profile lookup failed")
		return
	}
	writeData(w, http.StatusOK, "ok", user.Snapshot())
}

type userStatusRequest struct {
	Status string `json:"status"`
}

func (a *API) handleUserStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, codeResourceIDInvalid, "invalid user id")
		return
	}
	var req userStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	status := auth.UserStatus(req.Status)
	if !status.Valid() {
		writeError(w, http.StatusBadRequest, codeBadRequest, "unknown status")
		return
	}
	if err := a.store.Users(r.Context()).UpdateStatus(r.Context(), userID, status); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			writeError(w, http.StatusNotFound, codeBadRequest, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, codeInternal, "status update failed")
		return
	}
	_ = audit.LogEvent(r.Context(), "admin.user.status_changed", map[string]any{
		"target_user_id": userID,
		"status":         string(status),
	})
	writeData(w, http.StatusOK, "ok", nil)
}

func (a *API) handleClassMembers(w http.ResponseWriter, r *http.Request) {
	classID, err := strconv.ParseInt(r.PathValue("class_id"), 10, 64)
	if err != nil || classID <= 0 {
		writeError(w, http.StatusBadRequest, codeResourceIDInvalid, "invalid class id")
		return
	}
	members, err := a.store.Memberships(r.Context()).ListByClass(r.Context(), classID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternal, "member listing failed")
		return
	}
	if members == nil {
		members = []auth.Membership{}
	}
	writeData(w, http.StatusOK, "ok", members)
}
