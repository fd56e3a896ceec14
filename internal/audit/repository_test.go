package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/iotconnect-core/internal/infrastructure/database/dbtest"
)

func TestSQLiteRepository_CreateAndList(t *testing.T) {
	repo := NewSQLiteRepository(dbtest.New(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []*Entry{
		{Action: ActionVerify, EntityType: EntityUser, EntityID: "usr-1", Actor: "alice@example.com", Source: "api", CreatedAt: base},
		{Action: ActionIssueDevice, EntityType: EntityDevice, EntityID: "dev-1", Actor: "alice@example.com", Source: "api",
			Details: map[string]any{"name": "kitchen"}, CreatedAt: base.Add(time.Minute)},
		{Action: ActionVerify, EntityType: EntityUser, EntityID: "usr-2", Actor: "bob@example.com", Source: "api", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		require.NoError(t, repo.Create(ctx, e))
		assert.NotEmpty(t, e.ID)
	}

	got, err := repo.List(ctx, Filter{Actor: "alice@example.com"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ActionIssueDevice, got[0].Action, "most recent first")
	assert.Equal(t, "kitchen", got[0].Details["name"])
	assert.True(t, got[0].CreatedAt.Equal(base.Add(time.Minute)))
	assert.Equal(t, ActionVerify, got[1].Action)
	assert.Nil(t, got[1].Details)

	got, err = repo.List(ctx, Filter{Action: ActionVerify, Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "bob@example.com", got[0].Actor)

	got, err = repo.List(ctx, Filter{Actor: "nobody@example.com"})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestSQLiteRepository_DefaultsIDAndTime(t *testing.T) {
	repo := NewSQLiteRepository(dbtest.New(t))

	e := &Entry{Action: ActionInitialize, EntityType: EntityDevice, Source: "api"}
	require.NoError(t, repo.Create(context.Background(), e))

	assert.Contains(t, e.ID, "aud-")
	assert.WithinDuration(t, time.Now(), e.CreatedAt, time.Minute)
}
