package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/iotconnect-core/internal/infrastructure/database/dbtest"
)

type recordingSender struct {
	mu   sync.Mutex
	sent map[string]string
}

func (r *recordingSender) SendVerification(email, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent == nil {
		r.sent = make(map[string]string)
	}
	r.sent[email] = token
}

func (r *recordingSender) tokenFor(email string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent[email]
}

func newTestService(t *testing.T) (*Service, *recordingSender) {
	t.Helper()
	db := dbtest.New(t)
	sender := &recordingSender{}
	svc := NewService(
		NewUserRepository(db),
		NewVerificationRepository(db),
		NewSessions(testSecret, time.Hour),
		sender,
		ServiceConfig{VerificationTTL: 15 * time.Minute},
	)
	return svc, sender
}

func TestService_RequestAndVerify(t *testing.T) {
	svc, sender := newTestService(t)
	ctx := context.Background()

	id, err := svc.RequestVerification(ctx, "Alice@Example.com")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	raw := sender.tokenFor("alice@example.com")
	require.Regexp(t, `^[a-z]{5}$`, raw)

	user, session, err := svc.Verify(ctx, id, raw)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "alice", user.Username)
	assert.Len(t, user.BrokerUser, 30)
	assert.Len(t, user.BrokerPass, 30)

	email, err := svc.ParseSession(session)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)
}

func TestService_VerifyIsRepeatable(t *testing.T) {
	svc, sender := newTestService(t)
	ctx := context.Background()

	id, err := svc.RequestVerification(ctx, "bob@example.com")
	require.NoError(t, err)
	raw := sender.tokenFor("bob@example.com")

	first, _, err := svc.Verify(ctx, id, raw)
	require.NoError(t, err)
	second, _, err := svc.Verify(ctx, id, raw)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.BrokerUser, second.BrokerUser)
	assert.Equal(t, first.BrokerPass, second.BrokerPass)
}

func TestService_ConcurrentVerifyCreatesOneAccount(t *testing.T) {
	db := dbtest.New(t)
	sender := &recordingSender{}
	svc := NewService(
		NewUserRepository(db),
		NewVerificationRepository(db),
		NewSessions(testSecret, time.Hour),
		sender,
		ServiceConfig{VerificationTTL: 15 * time.Minute},
	)
	ctx := context.Background()

	id, err := svc.RequestVerification(ctx, "erin@example.com")
	require.NoError(t, err)
	raw := sender.tokenFor("erin@example.com")

	const workers = 20
	var wg sync.WaitGroup
	ids := make([]string, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			user, _, err := svc.Verify(ctx, id, raw)
			errs[i] = err
			if user != nil {
				ids[i] = user.ID
			}
		}()
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i], "verify %d", i)
		assert.Equal(t, ids[0], ids[i], "verify %d returned a different account", i)
	}

	var count int
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE email = ?", "erin@example.com").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestService_SecondVerificationKeepsAccount(t *testing.T) {
	svc, sender := newTestService(t)
	ctx := context.Background()

	id1, err := svc.RequestVerification(ctx, "carol@example.com")
	require.NoError(t, err)
	first, _, err := svc.Verify(ctx, id1, sender.tokenFor("carol@example.com"))
	require.NoError(t, err)

	id2, err := svc.RequestVerification(ctx, "carol@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	second, _, err := svc.Verify(ctx, id2, sender.tokenFor("carol@example.com"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.BrokerPass, second.BrokerPass)
}

func TestService_VerifyFailures(t *testing.T) {
	svc, sender := newTestService(t)
	ctx := context.Background()

	id, err := svc.RequestVerification(ctx, "dave@example.com")
	require.NoError(t, err)
	raw := sender.tokenFor("dave@example.com")

	wrong := "aaaaa"
	if raw == wrong {
		wrong = "bbbbb"
	}

	_, _, err = svc.Verify(ctx, "missing-id", raw)
	assert.ErrorIs(t, err, ErrVerificationNotFound)

	_, _, err = svc.Verify(ctx, id, wrong)
	assert.ErrorIs(t, err, ErrTokenMismatch)

	_, err = svc.GetUser(ctx, "dave@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound, "failed verify must not create an account")

	svc.now = func() time.Time { return time.Now().Add(16 * time.Minute) }
	_, _, err = svc.Verify(ctx, id, raw)
	assert.ErrorIs(t, err, ErrVerificationExpired)
}

func TestService_RequestVerificationRejectsBadEmail(t *testing.T) {
	svc, sender := newTestService(t)

	_, err := svc.RequestVerification(context.Background(), "not-an-email")
	assert.ErrorIs(t, err, ErrInvalidEmail)
	assert.Empty(t, sender.sent)
}

func TestUserRepository_UpsertKeepsExisting(t *testing.T) {
	db := dbtest.New(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	first, err := repo.Upsert(ctx, &User{Email: "eve@example.com", Username: "eve", BrokerUser: "u1", BrokerPass: "p1"})
	require.NoError(t, err)

	second, err := repo.Upsert(ctx, &User{Email: "eve@example.com", Username: "eve", BrokerUser: "u2", BrokerPass: "p2"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "u1", second.BrokerUser)
	assert.Equal(t, "p1", second.BrokerPass)

	_, err = repo.Upsert(ctx, &User{Email: "frank@example.com", Username: "frank", BrokerUser: "u1", BrokerPass: "p3"})
	assert.ErrorIs(t, err, ErrUserConflict)
}
