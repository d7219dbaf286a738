package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

const (
	minUsernameLen = 3
	minPasswordLen = 8
)

// Service implements the account lifecycle: register, login, refresh
// rotation and logout. Authentication of in-flight requests also lives
// here so the HTTP gate stays a thin adapter.
type Service struct {
	store    Store
	codec    *Codec
	sessions *SessionCache
	now      func() time.Time
}

func NewService(store Store, codec *Codec, sessions *SessionCache) *Service {
	return &Service{
		store:    store,
		codec:    codec,
		sessions: sessions,
		now:      time.Now,
	}
}

// TokenPair carries access and refresh tokens with their expirations.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Register creates an active account with the default role.
func (s *Service) Register(ctx context.Context, username, password string) (*UserSnapshot, error) {
	username = strings.TrimSpace(username)
	if len(username) < minUsernameLen || len(password) < minPasswordLen {
		return nil, ErrInvalidInput
	}
	users := s.store.Users(ctx)
	if _, err := users.FindByUsername(ctx, username); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &User{
		Username:     username,
		PasswordHash: hash,
		Role:         RoleUser,
		Status:       StatusActive,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, err
	}
	snapshot := user.Snapshot()
	return &snapshot, nil
}

// Login verifies credentials and mints a fresh token pair.
func (s *Service) Login(ctx context.Context, username, password string) (TokenPair, *UserSnapshot, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return TokenPair{}, nil, ErrBadCredentials
	}
	user, err := s.store.Users(ctx).FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, nil, ErrBadCredentials
		}
		return TokenPair{}, nil, err
	}
	if user.Status != StatusActive {
		return TokenPair{}, nil, ErrUserInactive
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return TokenPair{}, nil, ErrBadCredentials
	}
	pair, err := s.mintPair(ctx, user)
	if err != nil {
		return TokenPair{}, nil, err
	}
	snapshot := user.Snapshot()
	return pair, &snapshot, nil
}

// Refresh rotates the refresh token: the presented token is revoked and
// a new pair is issued. Revoked and expired tokens both yield
// ErrTokenInvalid so callers cannot distinguish replay from expiry.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, *UserSnapshot, error) {
	claims, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		return TokenPair{}, nil, ErrTokenInvalid
	}
	tokens := s.store.RefreshTokens(ctx)
	record, err := tokens.Find(ctx, claims.ID)
	if err != nil {
		return TokenPair{}, nil, ErrTokenInvalid
	}
	if record.Revoked || s.now().After(record.ExpiresAt) {
		return TokenPair{}, nil, ErrTokenInvalid
	}
	if !secureCompareHash(record.TokenHash, refreshToken) {
		return TokenPair{}, nil, ErrTokenInvalid
	}

	user, err := s.store.Users(ctx).Find(ctx, record.UserID)
	if err != nil {
		return TokenPair{}, nil, ErrTokenInvalid
	}
	if user.Status != StatusActive {
		return TokenPair{}, nil, ErrUserInactive
	}

	if err := tokens.MarkRevoked(ctx, record.ID); err != nil {
		return TokenPair{}, nil, err
	}
	pair, err := s.mintPair(ctx, user)
	if err != nil {
		return TokenPair{}, nil, err
	}
	snapshot := user.Snapshot()
	return pair, &snapshot, nil
}

// Logout drops the cached session for the access token and revokes all
// of the user's refresh tokens.
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.codec.VerifyAccess(accessToken)
	if err != nil {
		return ErrTokenInvalid
	}
	userID, err := claims.UserID()
	if err != nil {
		return ErrTokenInvalid
	}
	s.sessions.DropUser(ctx, accessToken)
	return s.store.RefreshTokens(ctx).MarkRevokedByUser(ctx, userID)
}

// Authenticate resolves a bearer access token to a user snapshot,
// consulting the session cache before the user store. The snapshot is
// cached best-effort after a cold lookup; a user deactivated afterwards
// stays authenticated until the cached entry expires.
func (s *Service) Authenticate(ctx context.Context, token string) (*UserSnapshot, error) {
	claims, err := s.codec.VerifyAccess(token)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	if snapshot, ok := s.sessions.LookupUser(ctx, token); ok {
		if snapshot.Status != StatusActive {
			return nil, ErrUserInactive
		}
		return snapshot, nil
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrTokenInvalid
	}
	user, err := s.store.Users(ctx).Find(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Status != StatusActive {
		return nil, ErrUserInactive
	}
	snapshot := user.Snapshot()
	s.sessions.StoreUser(ctx, token, snapshot, 0)
	return &snapshot, nil
}

func (s *Service) mintPair(ctx context.Context, user *User) (TokenPair, error) {
	accessToken, accessExp, err := s.codec.IssueAccess(user.ID, user.Role)
	if err != nil {
		return TokenPair{}, err
	}
	refreshToken, refreshExp, err := s.codec.IssueRefresh(user.ID, user.Role)
	if err != nil {
		return TokenPair{}, err
	}
	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	record := &RefreshToken{
		ID:        claims.ID,
		UserID:    user.ID,
		TokenHash: hashToken(refreshToken),
		ExpiresAt: refreshExp,
	}
	if err := s.store.RefreshTokens(ctx).Create(ctx, record); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func secureCompareHash(expectedHash, token string) bool {
	actual := hashToken(token)
	return subtle.ConstantTimeCompare([]byte(expectedHash), []byte(actual)) == 1
}
