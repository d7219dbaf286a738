package auth

import "context"

// Store describes persistence operations required by the auth subsystem.
type Store interface {
	Users(ctx context.Context) UserStore
	Memberships(ctx context.Context) MembershipStore
	RefreshTokens(ctx context.Context) RefreshTokenStore
}

// UserStore manages accounts.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id int64) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	UpdateStatus(ctx context.Context, id int64, status UserStatus) error
}

// MembershipStore resolves per-class roles.
type MembershipStore interface {
	Find(ctx context.Context, classID, userID int64) (*Membership, error)
	ListByClass(ctx context.Context, classID int64) ([]Membership, error)
}

// RefreshTokenStore manages refresh token lifecycle.
type RefreshTokenStore interface {
	Create(ctx context.Context, tok *RefreshToken) error
	Find(ctx context.Context, id string) (*RefreshToken, error)
	MarkRevoked(ctx context.Context, id string) error
	MarkRevokedByUser(ctx context.Context, userID int64) error
}
