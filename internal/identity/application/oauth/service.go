// Package oauth stores provider tokens and hands out refreshing token
// sources. Authorization flows happen elsewhere; tokens arrive here already
// minted and are imported as-is.
package oauth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/waypointhq/waypoint/internal/identity/domain"
	"github.com/waypointhq/waypoint/internal/shared/infrastructure/crypto"
)

// Service manages encrypted OAuth token storage for one provider.
type Service struct {
	provider    string
	oauthConfig *oauth2.Config
	repo        domain.TokenRepository
	encrypter   crypto.Encrypter
	logger      *slog.Logger
}

// NewService creates a token service for the named provider. When clientID,
// clientSecret and tokenURL are all set, token sources refresh expired
// access tokens automatically; otherwise stored tokens are served as-is.
func NewService(
	provider string,
	clientID string,
	clientSecret string,
	tokenURL string,
	repo domain.TokenRepository,
	encrypter crypto.Encrypter,
	logger *slog.Logger,
) (*Service, error) {
	if provider == "" {
		return nil, errors.New("oauth provider is required")
	}
	if repo == nil || encrypter == nil {
		return nil, errors.New("oauth dependencies are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var cfg *oauth2.Config
	if clientID != "" && clientSecret != "" && tokenURL != "" {
		cfg = &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		}
	}

	return &Service{
		provider:    provider,
		oauthConfig: cfg,
		repo:        repo,
		encrypter:   encrypter,
		logger:      logger,
	}, nil
}

// ImportToken encrypts and stores a token for the given user, replacing any
// previous one.
func (s *Service) ImportToken(ctx context.Context, userID uuid.UUID, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return errors.New("token has no access token")
	}

	accessEnc, err := s.encrypter.Encrypt([]byte(token.AccessToken))
	if err != nil {
		return err
	}
	var refreshEnc []byte
	if token.RefreshToken != "" {
		refreshEnc, err = s.encrypter.Encrypt([]byte(token.RefreshToken))
		if err != nil {
			return err
		}
	}

	tokenType := token.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	stored := domain.StoredToken{
		UserID:       userID,
		Provider:     s.provider,
		AccessToken:  accessEnc,
		RefreshToken: refreshEnc,
		TokenType:    tokenType,
		Expiry:       token.Expiry,
		UpdatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Upsert(ctx, stored); err != nil {
		return err
	}

	s.logger.Info("stored oauth token",
		slog.String("provider", s.provider),
		slog.String("user_id", userID.String()),
	)
	return nil
}

// TokenSource returns a token source for the given user. With refresh
// credentials configured the source renews expired tokens on demand.
func (s *Service) TokenSource(ctx context.Context, userID uuid.UUID) (oauth2.TokenSource, error) {
	token, err := s.loadToken(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.oauthConfig == nil {
		return oauth2.StaticTokenSource(token), nil
	}
	return s.oauthConfig.TokenSource(ctx, token), nil
}

func (s *Service) loadToken(ctx context.Context, userID uuid.UUID) (*oauth2.Token, error) {
	stored, err := s.repo.Get(ctx, userID, s.provider)
	if err != nil {
		return nil, err
	}

	access, err := s.encrypter.Decrypt(stored.AccessToken)
	if err != nil {
		return nil, err
	}
	refresh := ""
	if len(stored.RefreshToken) > 0 {
		refreshBytes, err := s.encrypter.Decrypt(stored.RefreshToken)
		if err != nil {
			return nil, err
		}
		refresh = string(refreshBytes)
	}

	return &oauth2.Token{
		AccessToken:  string(access),
		RefreshToken: refresh,
		TokenType:    stored.TokenType,
		Expiry:       stored.Expiry,
	}, nil
}
