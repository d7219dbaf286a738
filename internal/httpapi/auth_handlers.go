package httpapi

import (
	"errors"
	"net/http"
	"time"

	"classhub.org/internal/audit"
	"classhub.org/internal/auth"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPairResponse struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

func pairResponse(pair auth.TokenPair) tokenPairResponse {
	return tokenPairResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	snapshot, err := a.service.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, codeBadRequest, "username or password does not meet requirements")
		case errors.Is(err, auth.ErrAlreadyExists):
			writeError(w, http.StatusConflict, codeBadRequest, "username is taken")
		default:
			writeError(w, http.StatusInternalServerError, codeInternal, "registration failed")
		}
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.registered", map[string]any{
		"user_id":  snapshot.ID,
		"username": snapshot.Username,
	})
	writeData(w, http.StatusCreated, "registered", snapshot)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	pair, snapshot, err := a.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrBadCredentials):
			writeError(w, http.StatusUnauthorized, codeBadCredentials, "invalid username or password")
		case errors.Is(err, auth.ErrUserInactive):
			writeError(w, http.StatusUnauthorized, codeUserInactive, "user is not active")
		default:
			writeError(w, http.StatusInternalServerError, codeInternal, "login failed")
		}
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"user_id": snapshot.ID,
	})
	writeData(w, http.StatusOK, "ok", pairResponse(pair))
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	pair, snapshot, err := a.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenInvalid):
			writeError(w, http.StatusUnauthorized, codeTokenInvalid, "invalid refresh token")
		case errors.Is(err, auth.ErrUserInactive):
			writeError(w, http.StatusUnauthorized, codeUserInactive, "user is not active")
		default:
			writeError(w, http.StatusInternalServerError, codeInternal, "refresh failed")
		}
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.refresh", map[string]any{
		"user_id": snapshot.ID,
	})
	writeData(w, http.StatusOK, "ok", pairResponse(pair))
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := auth.TokenFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeTokenMissing, "authentication required")
		return
	}
	if err := a.service.Logout(r.Context(), token); err != nil {
		if errors.Is(err, auth.ErrTokenInvalid) {
			writeError(w, http.StatusUnauthorized, codeTokenInvalid, "invalid token")
			return
		}
		writeError(w, http.StatusInternalServerError, codeInternal, "logout failed")
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.logout", nil)
	writeData(w, http.StatusOK, "ok", nil)
}
