package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identityDomain "github.com/waypointhq/waypoint/internal/identity/domain"
	"github.com/waypointhq/waypoint/internal/shared/infrastructure/migrations"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migrations.RunSQLiteMigrations(context.Background(), sqlDB))
	return sqlDB
}

func TestSQLiteSettingsRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteSettingsRepository(setupTestDB(t))
	userID := uuid.New()

	t.Run("not found before first write", func(t *testing.T) {
		_, err := repo.Get(ctx, userID)
		assert.ErrorIs(t, err, identityDomain.ErrSettingsNotFound)
	})

	t.Run("round-trips settings", func(t *testing.T) {
		settings := identityDomain.DefaultWorkdaySettings(userID)
		settings.WorkdayStartHour = 8
		settings.WorkdayStartMinute = 30
		settings.AllowWeekends = true
		settings.UpdatedAt = time.Now().UTC().Truncate(time.Second)
		require.NoError(t, repo.Upsert(ctx, settings))

		loaded, err := repo.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, settings, loaded)
	})

	t.Run("upsert overwrites", func(t *testing.T) {
		settings := identityDomain.DefaultWorkdaySettings(userID)
		settings.WorkdayEndHour = 18
		settings.UpdatedAt = time.Now().UTC().Truncate(time.Second)
		require.NoError(t, repo.Upsert(ctx, settings))

		loaded, err := repo.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 18, loaded.WorkdayEndHour)
		assert.False(t, loaded.AllowWeekends)
	})
}
