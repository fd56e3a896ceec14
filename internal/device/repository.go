package device

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

// Repository defines the persistence operations for devices.
//
// Implementations must translate "no row" into ErrDeviceNotFound and
// must not leak driver errors for constraint failures.
type Repository interface {
	// Create inserts a device. Returns ErrDeviceKeyConflict when the key
	// is taken and auth.ErrUserNotFound when the owner does not exist.
	Create(ctx context.Context, device *Device) error

	GetByID(ctx context.Context, id string) (*Device, error)
	GetByKey(ctx context.Context, key string) (*Device, error)

	// UpdateStatus sets the status of the device with the given ID and,
	// for StatusOnline, stamps last_online with at.
	UpdateStatus(ctx context.Context, id string, status Status, at time.Time) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed device repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const deviceColumns = "id, name, device_key, pass_hash, status, owner_email, last_online, created_at"

// Create inserts a new device. The ID is generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, device *Device) error {
	if device.ID == "" {
		device.ID = "dev-" + uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Second)
	device.CreatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO devices (id, name, device_key, pass_hash, status, owner_email, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		device.ID, device.Name, device.Key, device.PassHash,
		int(device.Status), device.OwnerEmail, now.Format(time.RFC3339),
	)
	if err != nil {
		switch {
		case isUniqueConstraintError(err):
			return ErrDeviceKeyConflict
		case isForeignKeyError(err):
			return auth.ErrUserNotFound
		}
		return fmt.Errorf("creating device: %w", err)
	}
	return nil
}

// GetByID retrieves a device by its ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Device, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+deviceColumns+" FROM devices WHERE id = ?", id)
	return scanDevice(row)
}

// GetByKey retrieves a device by its device key.
func (r *SQLiteRepository) GetByKey(ctx context.Context, key string) (*Device, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+deviceColumns+" FROM devices WHERE device_key = ?", key)
	return scanDevice(row)
}

// UpdateStatus sets the device status.
func (r *SQLiteRepository) UpdateStatus(ctx context.Context, id string, status Status, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE devices
		 SET status = ?,
		     last_online = CASE WHEN ? = 1 THEN ? ELSE last_online END
		 WHERE id = ?`,
		int(status), int(status), at.UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("updating device status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(s rowScanner) (*Device, error) {
	var d Device
	var status int
	var lastOnline sql.NullString
	var createdAt string

	err := s.Scan(&d.ID, &d.Name, &d.Key, &d.PassHash, &status, &d.OwnerEmail, &lastOnline, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("scanning device: %w", err)
	}

	d.Status = Status(status)
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	if lastOnline.Valid {
		if t, err := time.Parse(time.RFC3339, lastOnline.String); err == nil {
			d.LastOnline = &t
		}
	}
	return &d, nil
}

// isUniqueConstraintError checks if an error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
