package auth

import "time"

// User is the persisted account record.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         GlobalRole
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Snapshot reduces a user to the fields the request path needs. This is
// what the session cache serializes.
func (u *User) Snapshot() UserSnapshot {
	return UserSnapshot{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
		Status:   u.Status,
	}
}

// UserSnapshot is the cached projection of a user attached to every
// authenticated request.
type UserSnapshot struct {
	ID       int64      `json:"id"`
	Username string     `json:"username"`
	Role     GlobalRole `json:"role"`
	Status   UserStatus `json:"status"`
}

// Identity is the authenticated principal attached to the request
// context once the auth gate admits a request.
type Identity struct {
	UserID int64
	Role   GlobalRole
	Status UserStatus
}

// Membership records a user's role inside a class.
type Membership struct {
	ClassID  int64     `json:"class_id"`
	UserID   int64     `json:"user_id"`
	Role     ClassRole `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// RefreshToken is a persisted, rotating refresh token. Only the sha256
// hash of the secret half is stored.
type RefreshToken struct {
	ID        string
	UserID    int64
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	Revoked   bool
}
