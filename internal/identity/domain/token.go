package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrTokenNotFound is returned when no stored token exists for a user and
// provider pair.
var ErrTokenNotFound = errors.New("oauth token not found")

// StoredToken is an OAuth token at rest. Access and refresh tokens are
// stored encrypted.
type StoredToken struct {
	UserID       uuid.UUID
	Provider     string
	AccessToken  []byte
	RefreshToken []byte
	TokenType    string
	Expiry       time.Time
	UpdatedAt    time.Time
}

// TokenRepository persists encrypted OAuth tokens.
type TokenRepository interface {
	Upsert(ctx context.Context, token StoredToken) error
	Get(ctx context.Context, userID uuid.UUID, provider string) (*StoredToken, error)
}
