package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrUserConflict is returned when a new user collides on a unique column
// other than email (the generated broker username).
var ErrUserConflict = errors.New("auth: user conflict")

// UserRepository defines the persistence operations for user accounts.
type UserRepository interface {
	// Upsert inserts user unless an account with the same email exists,
	// then returns the stored account. Existing accounts are never modified.
	Upsert(ctx context.Context, user *User) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// RowQuerier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type RowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteUserRepository implements UserRepository using SQLite.
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite-backed user repository.
func NewUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

const userColumns = "id, email, username, mqtt_user, mqtt_pass, created_at"

// Upsert inserts the user with ON CONFLICT(email) DO NOTHING and reads the
// winning row back, so concurrent verifies for one email converge on a
// single account.
func (r *SQLiteUserRepository) Upsert(ctx context.Context, user *User) (*User, error) {
	if user.ID == "" {
		user.ID = "usr-" + uuid.NewString()
	}
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, username, mqtt_user, mqtt_pass, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(email) DO NOTHING`,
		user.ID, user.Email, user.Username, user.BrokerUser, user.BrokerPass, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUserConflict
		}
		return nil, fmt.Errorf("upserting user: %w", err)
	}

	return r.GetByEmail(ctx, user.Email)
}

// GetByEmail retrieves a user by email.
func (r *SQLiteUserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return LookupUser(ctx, r.db, email)
}

// LookupUser reads a user by email through q, which may be a transaction.
// Returns ErrUserNotFound if no account exists.
func LookupUser(ctx context.Context, q RowQuerier, email string) (*User, error) {
	row := q.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
	return scanUser(row)
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*User, error) {
	var u User
	var createdAt string

	err := s.Scan(&u.ID, &u.Email, &u.Username, &u.BrokerUser, &u.BrokerPass, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	return &u, nil
}

// isUniqueViolation checks if an error is a SQLite UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
