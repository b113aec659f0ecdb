package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	identityDomain "github.com/waypointhq/waypoint/internal/identity/domain"
	sharedPersistence "github.com/waypointhq/waypoint/internal/shared/infrastructure/persistence"
)

// SQLiteTokenRepository implements TokenRepository using SQLite.
type SQLiteTokenRepository struct {
	db *sql.DB
}

// NewSQLiteTokenRepository creates a new SQLite token repository.
func NewSQLiteTokenRepository(db *sql.DB) *SQLiteTokenRepository {
	return &SQLiteTokenRepository{db: db}
}

func (r *SQLiteTokenRepository) Upsert(ctx context.Context, token identityDomain.StoredToken) error {
	exec := sharedPersistence.SQLiteExecutor(ctx, r.db)

	query := `
		INSERT INTO oauth_tokens (user_id, provider, access_token, refresh_token, token_type, expiry, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			expiry = excluded.expiry,
			updated_at = excluded.updated_at`

	_, err := exec.ExecContext(ctx, query,
		token.UserID.String(), token.Provider, token.AccessToken, token.RefreshToken,
		token.TokenType, token.Expiry.UTC().Format(time.RFC3339),
		token.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}

func (r *SQLiteTokenRepository) Get(ctx context.Context, userID uuid.UUID, provider string) (*identityDomain.StoredToken, error) {
	exec := sharedPersistence.SQLiteExecutor(ctx, r.db)

	query := `
		SELECT user_id, provider, access_token, refresh_token, token_type, expiry, updated_at
		FROM oauth_tokens
		WHERE user_id = ? AND provider = ?`

	var t identityDomain.StoredToken
	var userStr, expiryStr, updatedStr string
	err := exec.QueryRowContext(ctx, query, userID.String(), provider).Scan(
		&userStr, &t.Provider, &t.AccessToken, &t.RefreshToken,
		&t.TokenType, &expiryStr, &updatedStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, identityDomain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("get token: %w", err)
	}

	if t.UserID, err = uuid.Parse(userStr); err != nil {
		return nil, err
	}
	if t.Expiry, err = time.Parse(time.RFC3339, expiryStr); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339, updatedStr); err != nil {
		return nil, err
	}
	return &t, nil
}
