package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/waypointhq/waypoint/internal/identity/domain"
	"github.com/waypointhq/waypoint/internal/shared/infrastructure/crypto"
)

type stubTokenRepo struct {
	tokens map[string]domain.StoredToken
}

func newStubTokenRepo() *stubTokenRepo {
	return &stubTokenRepo{tokens: make(map[string]domain.StoredToken)}
}

func (r *stubTokenRepo) key(userID uuid.UUID, provider string) string {
	return userID.String() + "/" + provider
}

func (r *stubTokenRepo) Upsert(ctx context.Context, token domain.StoredToken) error {
	r.tokens[r.key(token.UserID, token.Provider)] = token
	return nil
}

func (r *stubTokenRepo) Get(ctx context.Context, userID uuid.UUID, provider string) (*domain.StoredToken, error) {
	token, ok := r.tokens[r.key(userID, provider)]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	return &token, nil
}

func testEncrypter(t *testing.T) crypto.Encrypter {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	enc, err := crypto.NewAESGCMFromBase64Key(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	return enc
}

func TestService_ImportAndTokenSource(t *testing.T) {
	repo := newStubTokenRepo()
	svc, err := NewService("google", "", "", "", repo, testEncrypter(t), nil)
	require.NoError(t, err)

	userID := uuid.New()
	token := &oauth2.Token{
		AccessToken:  "ya29.access",
		RefreshToken: "1//refresh",
		Expiry:       time.Now().Add(time.Hour).UTC(),
	}
	require.NoError(t, svc.ImportToken(context.Background(), userID, token))

	// Ciphertext at rest, not the raw token.
	stored, err := repo.Get(context.Background(), userID, "google")
	require.NoError(t, err)
	assert.NotContains(t, string(stored.AccessToken), token.AccessToken)

	source, err := svc.TokenSource(context.Background(), userID)
	require.NoError(t, err)
	got, err := source.Token()
	require.NoError(t, err)
	assert.Equal(t, token.AccessToken, got.AccessToken)
	assert.Equal(t, token.RefreshToken, got.RefreshToken)
	assert.Equal(t, "Bearer", got.TokenType)
}

func TestService_TokenSource_NotFound(t *testing.T) {
	svc, err := NewService("google", "", "", "", newStubTokenRepo(), testEncrypter(t), nil)
	require.NoError(t, err)

	_, err = svc.TokenSource(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestService_ImportToken_RejectsEmpty(t *testing.T) {
	svc, err := NewService("google", "", "", "", newStubTokenRepo(), testEncrypter(t), nil)
	require.NoError(t, err)

	assert.Error(t, svc.ImportToken(context.Background(), uuid.New(), nil))
}

func TestNewService_Validation(t *testing.T) {
	enc := testEncrypter(t)

	_, err := NewService("", "", "", "", newStubTokenRepo(), enc, nil)
	assert.Error(t, err)

	_, err = NewService("google", "", "", "", nil, enc, nil)
	assert.Error(t, err)
}
