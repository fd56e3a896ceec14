package device

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/iotconnect-core/internal/auth"
	"github.com/nerrad567/iotconnect-core/internal/infrastructure/database/dbtest"
)

const owner = "owner@example.com"

type presenceCall struct {
	deviceID string
	status   Status
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []presenceCall
	err   error
}

func (f *fakeRecorder) RecordPresence(_ context.Context, deviceID string, status Status, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, presenceCall{deviceID, status})
	return f.err
}

func setupRegistry(t *testing.T) (*Registry, *sql.DB) {
	t.Helper()
	db := dbtest.New(t)
	dbtest.SeedUser(t, db, owner)
	return NewRegistry(NewSQLiteRepository(db)), db
}

func TestIssueDevice(t *testing.T) {
	reg, _ := setupRegistry(t)
	ctx := context.Background()

	issued, err := reg.IssueDevice(ctx, owner, "kitchen")
	require.NoError(t, err)
	assert.Regexp(t, `^[A-Za-z0-9]{4}(-[A-Za-z0-9]{4}){4}$`, issued.Key)
	assert.Regexp(t, `^[A-Za-z0-9]{10}$`, issued.Pass)

	d, err := reg.Get(ctx, issued.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusUnregistered, d.Status)
	assert.Equal(t, owner, d.OwnerEmail)
	assert.Equal(t, issued.Key, d.Key)
	assert.NotContains(t, d.PassHash, issued.Pass)
	assert.Nil(t, d.LastOnline)
}

func TestIssueDevice_Errors(t *testing.T) {
	reg, _ := setupRegistry(t)
	ctx := context.Background()

	_, err := reg.IssueDevice(ctx, "nobody@example.com", "kitchen")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)

	_, err = reg.IssueDevice(ctx, owner, "   ")
	assert.ErrorIs(t, err, ErrInvalidName)

	reg.newKey = func() string { return "AAAA-BBBB-CCCC-DDDD-EEEE" }
	_, err = reg.IssueDevice(ctx, owner, "first")
	require.NoError(t, err)
	_, err = reg.IssueDevice(ctx, owner, "second")
	assert.ErrorIs(t, err, ErrDeviceKeyConflict)
}

func TestInitialize(t *testing.T) {
	reg, _ := setupRegistry(t)
	ctx := context.Background()
	rec := &fakeRecorder{}
	reg.AddPresenceRecorder(rec)

	issued, err := reg.IssueDevice(ctx, owner, "hall")
	require.NoError(t, err)

	_, err = reg.Initialize(ctx, issued.Key, "wrong-pass")
	assert.ErrorIs(t, err, ErrWrongPassword)
	d, err := reg.Get(ctx, issued.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusUnregistered, d.Status, "wrong pass must not change status")

	_, err = reg.Initialize(ctx, "ZZZZ-ZZZZ-ZZZZ-ZZZZ-ZZZZ", issued.Pass)
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	d, err = reg.Initialize(ctx, issued.Key, issued.Pass)
	require.NoError(t, err)
	assert.Equal(t, StatusOnline, d.Status)

	stored, err := reg.Get(ctx, issued.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOnline, stored.Status)
	require.NotNil(t, stored.LastOnline)

	assert.Equal(t, []presenceCall{{issued.ID, StatusOnline}}, rec.calls)
}

func TestSetOnlineOffline(t *testing.T) {
	reg, _ := setupRegistry(t)
	ctx := context.Background()

	issued, err := reg.IssueDevice(ctx, owner, "porch")
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return base }
	require.NoError(t, reg.SetOnline(ctx, issued.Key))
	require.NoError(t, reg.SetOnline(ctx, issued.Key), "set_online is idempotent")

	reg.now = func() time.Time { return base.Add(time.Hour) }
	require.NoError(t, reg.SetOffline(ctx, issued.Key))
	require.NoError(t, reg.SetOffline(ctx, issued.Key), "set_offline is idempotent")

	d, err := reg.Get(ctx, issued.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOffline, d.Status)
	require.NotNil(t, d.LastOnline)
	assert.True(t, d.LastOnline.Equal(base), "offline must not move last_online")

	assert.ErrorIs(t, reg.SetOnline(ctx, "missing"), ErrDeviceNotFound)
	assert.ErrorIs(t, reg.SetOffline(ctx, "missing"), ErrDeviceNotFound)
}

func TestSetOnline_RecorderFailureIsIgnored(t *testing.T) {
	reg, _ := setupRegistry(t)
	ctx := context.Background()
	failing := &fakeRecorder{err: errors.New("influx down")}
	next := &fakeRecorder{}
	reg.AddPresenceRecorder(failing)
	reg.AddPresenceRecorder(next)

	issued, err := reg.IssueDevice(ctx, owner, "garage")
	require.NoError(t, err)
	assert.NoError(t, reg.SetOnline(ctx, issued.Key))
	assert.Equal(t, []presenceCall{{issued.ID, StatusOnline}}, next.calls, "later recorders still run")
}

func TestAuthenticate(t *testing.T) {
	reg, _ := setupRegistry(t)
	ctx := context.Background()

	issued, err := reg.IssueDevice(ctx, owner, "attic")
	require.NoError(t, err)

	d, err := reg.Authenticate(ctx, issued.Key, issued.Pass)
	require.NoError(t, err)
	assert.Equal(t, issued.ID, d.ID)

	_, err = reg.Authenticate(ctx, issued.Key, "nope")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = reg.Authenticate(ctx, "unknown-key", issued.Pass)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "unregistered", StatusUnregistered.String())
	assert.Equal(t, "offline", StatusOffline.String())
	assert.Equal(t, "online", StatusOnline.String())
	assert.Equal(t, "status(7)", Status(7).String())
}
