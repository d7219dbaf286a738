package auth

import "errors"

var (
	ErrNotFound      = errors.New("auth: not found")
	ErrAlreadyExists = errors.New("auth: already exists")
	ErrInvalidInput  = errors.New("auth: invalid input")

	ErrTokenMissing = errors.New("auth: token missing")
	ErrTokenInvalid = errors.New("auth: token invalid")
	ErrUserNotFound = errors.New("auth: user not found")
	ErrUserInactive = errors.New("auth: user inactive")

	ErrBadCredentials = errors.New("auth: bad credentials")
	ErrTokenRevoked   = errors.New("auth: refresh token revoked")
	ErrTokenExpired   = errors.New("auth: refresh token expired")
)
