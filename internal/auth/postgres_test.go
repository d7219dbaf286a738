package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGStoreFindUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("select id, username, password_hash, role, status, created_at, updated_at from users where id=").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role", "status", "created_at", "updated_at"}).
			AddRow(int64(7), "alice", "hash", "teacher", "active", now, now))

	store := NewPGStore(db)
	user, err := store.Users(context.Background()).Find(context.Background(), 7)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if user.Username != "alice" || user.Role != RoleTeacher || user.Status != StatusActive {
		t.Fatalf("unexpected user: %+v", user)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreFindUserNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select id, username, password_hash, role, status, created_at, updated_at from users where id=").
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role", "status", "created_at", "updated_at"}))

	store := NewPGStore(db)
	if _, err := store.Users(context.Background()).Find(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreFindMembership(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	joined := time.Now()
	mock.ExpectQuery("select class_id, user_id, role, joined_at from class_members").
		WithArgs(int64(3), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"class_id", "user_id", "role", "joined_at"}).
			AddRow(int64(3), int64(7), "class_representative", joined))

	store := NewPGStore(db)
	m, err := store.Memberships(context.Background()).Find(context.Background(), 3, 7)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if m.Role != ClassRoleRepresentative || m.ClassID != 3 || m.UserID != 7 {
		t.Fatalf("unexpected membership: %+v", m)
	}

	mock.ExpectQuery("select class_id, user_id, role, joined_at from class_members").
		WithArgs(int64(3), int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"class_id", "user_id", "role", "joined_at"}))
	if _, err := store.Memberships(context.Background()).Find(context.Background(), 3, 8); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreRefreshTokenLifecycle(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	expires := time.Now().Add(time.Hour)
	mock.ExpectExec("insert into refresh_tokens").
		WithArgs("tok-1", int64(7), "deadbeef", expires).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("select id, user_id, token_hash, expires_at, created_at, revoked from refresh_tokens").
		WithArgs("tok-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "created_at", "revoked"}).
			AddRow("tok-1", int64(7), "deadbeef", expires, time.Now(), false))
	mock.ExpectExec("update refresh_tokens set revoked=true where id=").
		WithArgs("tok-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("update refresh_tokens set revoked=true where user_id=").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	store := NewPGStore(db)
	ctx := context.Background()
	tokens := store.RefreshTokens(ctx)

	rec := &RefreshToken{ID: "tok-1", UserID: 7, TokenHash: "deadbeef", ExpiresAt: expires}
	if err := tokens.Create(ctx, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}
	found, err := tokens.Find(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if found.Revoked || found.UserID != 7 {
		t.Fatalf("unexpected record: %+v", found)
	}
	if err := tokens.MarkRevoked(ctx, "tok-1"); err != nil {
		t.Fatalf("MarkRevoked: %v", err)
	}
	if err := tokens.MarkRevokedByUser(ctx, 7); err != nil {
		t.Fatalf("MarkRevokedByUser: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
