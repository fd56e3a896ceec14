package device

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/iotconnect-core/internal/auth"
)

func newMockRepo(t *testing.T) (*SQLiteRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLiteRepository(db), mock
}

func TestSQLiteRepository_CreateClassifiesErrors(t *testing.T) {
	tests := []struct {
		name    string
		dbErr   error
		wantErr error
	}{
		{"unique key", errors.New("UNIQUE constraint failed: devices.device_key"), ErrDeviceKeyConflict},
		{"missing owner", errors.New("FOREIGN KEY constraint failed"), auth.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectExec("INSERT INTO devices").WillReturnError(tt.dbErr)

			err := repo.Create(context.Background(), &Device{Key: "k", OwnerEmail: "x@example.com"})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLiteRepository_CreateWrapsOtherErrors(t *testing.T) {
	repo, mock := newMockRepo(t)
	dbErr := errors.New("disk I/O error")
	mock.ExpectExec("INSERT INTO devices").WillReturnError(dbErr)

	err := repo.Create(context.Background(), &Device{Key: "k"})
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrDeviceKeyConflict)
}

func TestSQLiteRepository_UpdateStatusNoRows(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("UPDATE devices").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "dev-1", StatusOnline, time.Now())
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestSQLiteRepository_GetByKeyDeadline(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM devices WHERE device_key").WillReturnError(context.DeadlineExceeded)

	_, err := repo.GetByKey(context.Background(), "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
