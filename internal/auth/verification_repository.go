package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// VerificationRepository stores pending email verifications.
type VerificationRepository interface {
	Create(ctx context.Context, v *Verification) error
	GetByID(ctx context.Context, id string) (*Verification, error)
}

// SQLiteVerificationRepository implements VerificationRepository using SQLite.
type SQLiteVerificationRepository struct {
	db *sql.DB
}

// NewVerificationRepository creates a new SQLite-backed verification repository.
func NewVerificationRepository(db *sql.DB) *SQLiteVerificationRepository {
	return &SQLiteVerificationRepository{db: db}
}

// Create inserts a verification row. The ID is generated if empty.
func (r *SQLiteVerificationRepository) Create(ctx context.Context, v *Verification) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO verifications (id, email, token_hash, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)`,
		v.ID, v.Email, v.TokenHash,
		v.CreatedAt.UTC().Format(time.RFC3339),
		v.ExpiresAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("creating verification: %w", err)
	}
	return nil
}

// GetByID retrieves a verification by id.
// Returns ErrVerificationNotFound if no row matches.
func (r *SQLiteVerificationRepository) GetByID(ctx context.Context, id string) (*Verification, error) {
	var v Verification
	var createdAt, expiresAt string

	err := r.db.QueryRowContext(ctx,
		"SELECT id, email, token_hash, created_at, expires_at FROM verifications WHERE id = ?", id,
	).Scan(&v.ID, &v.Email, &v.TokenHash, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVerificationNotFound
		}
		return nil, fmt.Errorf("getting verification: %w", err)
	}

	v.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	if v.ExpiresAt, err = time.Parse(time.RFC3339, expiresAt); err != nil {
		return nil, fmt.Errorf("parsing verification expiry: %w", err)
	}
	return &v, nil
}
