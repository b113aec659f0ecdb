package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identityDomain "github.com/waypointhq/waypoint/internal/identity/domain"
)

func TestSQLiteTokenRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteTokenRepository(setupTestDB(t))
	userID := uuid.New()

	t.Run("not found before write", func(t *testing.T) {
		_, err := repo.Get(ctx, userID, "google")
		assert.ErrorIs(t, err, identityDomain.ErrTokenNotFound)
	})

	t.Run("round trip", func(t *testing.T) {
		token := identityDomain.StoredToken{
			UserID:       userID,
			Provider:     "google",
			AccessToken:  []byte{0x01, 0x02, 0x03},
			RefreshToken: []byte{0x04, 0x05},
			TokenType:    "Bearer",
			Expiry:       time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
			UpdatedAt:    time.Now().UTC().Truncate(time.Second),
		}
		require.NoError(t, repo.Upsert(ctx, token))

		got, err := repo.Get(ctx, userID, "google")
		require.NoError(t, err)
		assert.Equal(t, token, *got)
	})

	t.Run("upsert replaces", func(t *testing.T) {
		token := identityDomain.StoredToken{
			UserID:      userID,
			Provider:    "google",
			AccessToken: []byte{0xaa},
			TokenType:   "Bearer",
			Expiry:      time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC),
			UpdatedAt:   time.Now().UTC().Truncate(time.Second),
		}
		require.NoError(t, repo.Upsert(ctx, token))

		got, err := repo.Get(ctx, userID, "google")
		require.NoError(t, err)
		assert.Equal(t, []byte{0xaa}, got.AccessToken)
		assert.Empty(t, got.RefreshToken)
	})

	t.Run("scoped by provider", func(t *testing.T) {
		_, err := repo.Get(ctx, userID, "microsoft")
		assert.ErrorIs(t, err, identityDomain.ErrTokenNotFound)
	})
}
