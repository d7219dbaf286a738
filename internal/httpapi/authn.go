package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"classhub.org/internal/auth"
	"classhub.org/internal/obs"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/healthz",
	"/readyz",
	"/metrics",
	"/api/v1/auth/login",
	"/api/v1/auth/register",
	"/api/v1/auth/refresh",
}

// withAuth authenticates every non-public request and attaches the
// resulting identity to the context. Pre-flight requests bypass the
// gate entirely with an empty 204.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			obs.GateRejection("auth", "token_missing")
			writeError(w, http.StatusUnauthorized, codeTokenMissing, err.Error())
			return
		}

		snapshot, err := a.service.Authenticate(r.Context(), token)
		if err != nil {
			status, code, message := authRejection(err)
			obs.GateRejection("auth", message)
			writeError(w, status, code, message)
			return
		}

		ctx := auth.ContextWithIdentity(r.Context(), auth.Identity{
			UserID: snapshot.ID,
			Role:   snapshot.Role,
			Status: snapshot.Status,
		})
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func authRejection(err error) (status, code int, message string) {
	switch {
	case errors.Is(err, auth.ErrTokenInvalid):
		return http.StatusUnauthorized, codeTokenInvalid, "invalid token"
	case errors.Is(err, auth.ErrUserNotFound):
		return http.StatusUnauthorized, codeUserNotFound, "user not found"
	case errors.Is(err, auth.ErrUserInactive):
		return http.StatusUnauthorized, codeUserInactive, "user is not active"
	default:
		return http.StatusInternalServerError, codeInternal, "authentication error"
	}
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
