package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(key)
}

func TestAESEncrypter_RoundTrip(t *testing.T) {
	enc, err := NewAESGCMFromBase64Key(testKey(t))
	require.NoError(t, err)

	plaintext := []byte("ya29.refresh-token-material")
	ciphertext, err := enc.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, ciphertext)

	decrypted, err := enc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestAESEncrypter_FreshNoncePerCall(t *testing.T) {
	enc, err := NewAESGCMFromBase64Key(testKey(t))
	require.NoError(t, err)

	first, err := enc.Encrypt([]byte("same input"))
	require.NoError(t, err)
	second, err := enc.Encrypt([]byte("same input"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestAESEncrypter_RejectsTampering(t *testing.T) {
	enc, err := NewAESGCMFromBase64Key(testKey(t))
	require.NoError(t, err)

	ciphertext, err := enc.Encrypt([]byte("secret"))
	require.NoError(t, err)
	ciphertext[len(ciphertext)-1] ^= 0xff

	_, err = enc.Decrypt(ciphertext)
	assert.Error(t, err)
}

func TestAESEncrypter_RejectsShortCiphertext(t *testing.T) {
	enc, err := NewAESGCMFromBase64Key(testKey(t))
	require.NoError(t, err)

	_, err = enc.Decrypt([]byte{0x01, 0x02})
	assert.Error(t, err)
}

func TestNewAESGCMFromBase64Key_Validation(t *testing.T) {
	_, err := NewAESGCMFromBase64Key("")
	assert.Error(t, err)

	_, err = NewAESGCMFromBase64Key("not base64!!!")
	assert.Error(t, err)

	short := base64.StdEncoding.EncodeToString([]byte("too short"))
	_, err = NewAESGCMFromBase64Key(short)
	assert.Error(t, err)
}
