package controllable

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/iotconnect-core/internal/auth"
)

// Repository defines persistence for controllables.
type Repository interface {
	Create(ctx context.Context, c *Controllable) error
	Get(ctx context.Context, deviceID, name string) (*Controllable, error)

	// Credentials resolves the controllable and the credentials of the
	// account owning ownerEmail in a single read transaction.
	Credentials(ctx context.Context, deviceID, name, ownerEmail string) (*Credentials, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed controllable repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const controllableColumns = "id, device_id, name, category, topic_name, created_at"

// Create inserts a controllable. The ID is generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, c *Controllable) error {
	if c.ID == "" {
		c.ID = "ctl-" + uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Second)
	c.CreatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO controllables (id, device_id, name, category, topic_name, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.DeviceID, c.Name, c.Category, c.TopicName, now.Format(time.RFC3339),
	)
	if err != nil {
		msg := err.Error()
		switch {
		case strings.Contains(msg, "UNIQUE constraint failed: controllables.topic_name"):
			return ErrTopicConflict
		case strings.Contains(msg, "UNIQUE constraint failed"):
			return ErrDuplicate
		}
		return fmt.Errorf("creating controllable: %w", err)
	}
	return nil
}

// Get retrieves a controllable by its device and name.
func (r *SQLiteRepository) Get(ctx context.Context, deviceID, name string) (*Controllable, error) {
	return getControllable(ctx, r.db, deviceID, name)
}

// Credentials reads the controllable and its owner's broker credentials
// inside one read-only transaction.
func (r *SQLiteRepository) Credentials(ctx context.Context, deviceID, name, ownerEmail string) (*Credentials, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	c, err := getControllable(ctx, tx, deviceID, name)
	if err != nil {
		return nil, err
	}
	user, err := auth.LookupUser(ctx, tx, ownerEmail)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return &Credentials{
		Topic:      c.TopicName,
		BrokerUser: user.BrokerUser,
		BrokerPass: user.BrokerPass,
	}, nil
}

func getControllable(ctx context.Context, q auth.RowQuerier, deviceID, name string) (*Controllable, error) {
	var c Controllable
	var createdAt string

	err := q.QueryRowContext(ctx,
		"SELECT "+controllableColumns+" FROM controllables WHERE device_id = ? AND name = ?",
		deviceID, name,
	).Scan(&c.ID, &c.DeviceID, &c.Name, &c.Category, &c.TopicName, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrControllableNotFound
		}
		return nil, fmt.Errorf("getting controllable: %w", err)
	}

	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	return &c, nil
}
