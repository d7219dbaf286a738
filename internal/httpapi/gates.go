package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"classhub.org/internal/auth"
	"classhub.org/internal/obs"
)

// Middleware is a standard handler wrapper.
type Middleware func(http.Handler) http.Handler

type matchMode int

const (
	matchAll matchMode = iota
	matchAny
)

// RequireRole admits only callers holding exactly the given global role
// (admins included via the allow-lists in the auth package, not here).
func RequireRole(role auth.GlobalRole) Middleware {
	return requireGlobalRole(matchAll, role)
}

// RequireAnyRole admits callers holding any of the listed global roles.
func RequireAnyRole(roles ...auth.GlobalRole) Middleware {
	return requireGlobalRole(matchAny, roles...)
}

func requireGlobalRole(mode matchMode, roles ...auth.GlobalRole) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				obs.GateRejection("role", "unauthenticated")
				writeError(w, http.StatusUnauthorized, codeTokenMissing, "authentication required")
				return
			}
			if !globalRoleAllowed(mode, identity.Role, roles) {
				w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope"`)
				obs.GateRejection("role", "insufficient_role")
				writeError(w, http.StatusForbidden, codeInsufficientRole, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func globalRoleAllowed(mode matchMode, have auth.GlobalRole, want []auth.GlobalRole) bool {
	if len(want) == 0 {
		return false
	}
	switch mode {
	case matchAny:
		for _, role := range want {
			if have == role {
				return true
			}
		}
		return false
	default:
		for _, role := range want {
			if have != role {
				return false
			}
		}
		return true
	}
}

// ClassGate authorizes class-scoped routes against the caller's
// membership role. It must run after withAuth in the chain.
type ClassGate struct {
	store auth.Store
}

func NewClassGate(store auth.Store) *ClassGate {
	return &ClassGate{store: store}
}

// Require admits only members holding exactly the given class role.
func (g *ClassGate) Require(role auth.ClassRole) Middleware {
	return g.gate(matchAll, []auth.ClassRole{role})
}

// RequireAny admits members holding any of the listed class roles.
func (g *ClassGate) RequireAny(roles ...auth.ClassRole) Middleware {
	return g.gate(matchAny, roles)
}

func (g *ClassGate) gate(mode matchMode, roles []auth.ClassRole) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				obs.GateRejection("class_role", "unauthenticated")
				writeError(w, http.StatusUnauthorized, codeTokenMissing, "authentication required")
				return
			}

			classID, err := strconv.ParseInt(r.PathValue("class_id"), 10, 64)
			if err != nil || classID <= 0 {
				obs.GateRejection("class_role", "invalid_class_id")
				writeError(w, http.StatusBadRequest, codeResourceIDInvalid, "invalid class id")
				return
			}

			// admins are never blocked by scoped checks
			if identity.Role == auth.RoleAdmin {
				next.ServeHTTP(w, r)
				return
			}

			membership, err := g.store.Memberships(r.Context()).Find(r.Context(), classID, identity.UserID)
			if err != nil {
				if errors.Is(err, auth.ErrNotFound) {
					obs.GateRejection("class_role", "not_a_member")
					writeError(w, http.StatusForbidden, codeClassRoleDenied, "not a member of this class")
					return
				}
				writeError(w, http.StatusInternalServerError, codeInternal, "membership lookup failed")
				return
			}
			if !classRoleAllowed(mode, membership.Role, roles) {
				obs.GateRejection("class_role", "insufficient_role")
				writeError(w, http.StatusForbidden, codeClassRoleDenied, "insufficient class role")
				return
			}

			ctx := auth.ContextWithMembership(r.Context(), *membership)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func classRoleAllowed(mode matchMode, have auth.ClassRole, want []auth.ClassRole) bool {
	if len(want) == 0 {
		return false
	}
	switch mode {
	case matchAny:
		for _, role := range want {
			if have == role {
				return true
			}
		}
		return false
	default:
		for _, role := range want {
			if have != role {
				return false
			}
		}
		return true
	}
}
