package auth

import (
	"context"
	"database/sql"

	"classhub.org/internal/ids"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Users(context.Context) UserStore { return &userStore{db: s.db} }
func (s *PGStore) Memberships(context.Context) MembershipStore {
	return &membershipStore{db: s.db}
}
func (s *PGStore) RefreshTokens(context.Context) RefreshTokenStore {
	return &refreshTokenStore{db: s.db}
}

// User store ---------------------------------------------------------------
type userStore struct{ db *sql.DB }

func (s *userStore) Create(ctx context.Context, u *User) error {
	row := s.db.QueryRowContext(ctx,
		`insert into users(username, password_hash, role, status) values($1,$2,$3,$4) returning id, created_at, updated_at`,
		u.Username, u.PasswordHash, string(u.Role), string(u.Status),
	)
	return row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

func (s *userStore) Find(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, username, password_hash, role, status, created_at, updated_at from users where id=$1`, id)
	return scanUser(row)
}

func (s *userStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, username, password_hash, role, status, created_at, updated_at from users where username=$1`, username)
	return scanUser(row)
}

func (s *userStore) UpdateStatus(ctx context.Context, id int64, status UserStatus) error {
	_, err := s.db.ExecContext(ctx,
		`update users set status=$2, updated_at=now() where id=$1`, id, string(status))
	return err
}

func scanUser(row *sql.Row) (*User, error) {
	var (
		u      User
		role   string
		status string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &status, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Role = GlobalRole(role)
	u.Status = UserStatus(status)
	return &u, nil
}

// Membership store ---------------------------------------------------------
type membershipStore struct{ db *sql.DB }

func (s *membershipStore) Find(ctx context.Context, classID, userID int64) (*Membership, error) {
	row := s.db.QueryRowContext(ctx,
		`select class_id, user_id, role, joined_at from class_members where class_id=$1 and user_id=$2`,
		classID, userID)
	var (
		m    Membership
		role string
	)
	if err := row.Scan(&m.ClassID, &m.UserID, &role, &m.JoinedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	m.Role = ClassRole(role)
	return &m, nil
}

func (s *membershipStore) ListByClass(ctx context.Context, classID int64) ([]Membership, error) {
	rows, err := s.db.QueryContext(ctx,
		`select class_id, user_id, role, joined_at from class_members where class_id=$1 order by joined_at`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Membership
	for rows.Next() {
		var (
			m    Membership
			role string
		)
		if err := rows.Scan(&m.ClassID, &m.UserID, &role, &m.JoinedAt); err != nil {
			return nil, err
		}
		m.Role = ClassRole(role)
		members = append(members, m)
	}
	return members, rows.Err()
}

// Refresh token store ------------------------------------------------------
type refreshTokenStore struct{ db *sql.DB }

func (s *refreshTokenStore) Create(ctx context.Context, tok *RefreshToken) error {
	if tok.ID == "" {
		tok.ID = ids.New()
	}
	_, err := s.db.ExecContext(ctx,
		`insert into refresh_tokens(id, user_id, token_hash, expires_at) values($1,$2,$3,$4)`,
		tok.ID, tok.UserID, tok.TokenHash, tok.ExpiresAt,
	)
	return err
}

func (s *refreshTokenStore) Find(ctx context.Context, id string) (*RefreshToken, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, user_id, token_hash, expires_at, created_at, revoked from refresh_tokens where id=$1`, id)
	var tok RefreshToken
	if err := row.Scan(&tok.ID, &tok.UserID, &tok.TokenHash, &tok.ExpiresAt, &tok.CreatedAt, &tok.Revoked); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tok, nil
}

func (s *refreshTokenStore) MarkRevoked(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`update refresh_tokens set revoked=true where id=$1`, id)
	return err
}

func (s *refreshTokenStore) MarkRevokedByUser(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`update refresh_tokens set revoked=true where user_id=$1 and revoked=false`, userID)
	return err
}
