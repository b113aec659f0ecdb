package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	identityDomain "github.com/waypointhq/waypoint/internal/identity/domain"
	sharedPersistence "github.com/waypointhq/waypoint/internal/shared/infrastructure/persistence"
)

// PostgresTokenRepository implements TokenRepository using PostgreSQL.
type PostgresTokenRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTokenRepository creates a new PostgreSQL token repository.
func NewPostgresTokenRepository(pool *pgxpool.Pool) *PostgresTokenRepository {
	return &PostgresTokenRepository{pool: pool}
}

func (r *PostgresTokenRepository) Upsert(ctx context.Context, token identityDomain.StoredToken) error {
	exec := sharedPersistence.Executor(ctx, r.pool)

	query := `
		INSERT INTO oauth_tokens (user_id, provider, access_token, refresh_token, token_type, expiry, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_type = EXCLUDED.token_type,
			expiry = EXCLUDED.expiry,
			updated_at = EXCLUDED.updated_at`

	_, err := exec.Exec(ctx, query,
		token.UserID, token.Provider, token.AccessToken, token.RefreshToken,
		token.TokenType, token.Expiry, token.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}

func (r *PostgresTokenRepository) Get(ctx context.Context, userID uuid.UUID, provider string) (*identityDomain.StoredToken, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)

	query := `
		SELECT user_id, provider, access_token, refresh_token, token_type, expiry, updated_at
		FROM oauth_tokens
		WHERE user_id = $1 AND provider = $2`

	var t identityDomain.StoredToken
	err := exec.QueryRow(ctx, query, userID, provider).Scan(
		&t.UserID, &t.Provider, &t.AccessToken, &t.RefreshToken,
		&t.TokenType, &t.Expiry, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identityDomain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("get token: %w", err)
	}
	return &t, nil
}
