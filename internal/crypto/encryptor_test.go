package crypto_test

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pilab.hu/connections/internal/crypto"
)

func testKey() []byte {
	return bytes.Repeat([]byte{0x42}, 32)
}

func TestXChaChaEncryptor_RoundTrip(t *testing.T) {
	enc, err := crypto.NewXChaChaEncryptor(testKey())
	require.NoError(t, err)

	sealed, err := enc.Encrypt("ya29.access-token")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "access-token")

	again, err := enc.Encrypt("ya29.access-token")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "every encryption uses a fresh nonce")

	plain, err := enc.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "ya29.access-token", plain)
}

func TestXChaChaEncryptor_Empty(t *testing.T) {
	enc, err := crypto.NewXChaChaEncryptor(testKey())
	require.NoError(t, err)

	sealed, err := enc.Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, sealed)

	plain, err := enc.Decrypt("")
	require.NoError(t, err)
	assert.Empty(t, plain)
}

func TestXChaChaEncryptor_RejectsTampering(t *testing.T) {
	enc, err := crypto.NewXChaChaEncryptor(testKey())
	require.NoError(t, err)

	sealed, err := enc.Encrypt("secret")
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	_, err = enc.Decrypt(base64.RawURLEncoding.EncodeToString(raw))
	assert.ErrorIs(t, err, crypto.ErrInvalidCiphertext)

	_, err = enc.Decrypt("!!not base64!!")
	assert.ErrorIs(t, err, crypto.ErrInvalidCiphertext)

	_, err = enc.Decrypt("c2hvcnQ")
	assert.ErrorIs(t, err, crypto.ErrInvalidCiphertext)

	other, err := crypto.NewXChaChaEncryptor(bytes.Repeat([]byte{0x01}, 32))
	require.NoError(t, err)
	_, err = other.Decrypt(sealed)
	assert.ErrorIs(t, err, crypto.ErrInvalidCiphertext)
}

func TestNewXChaChaEncryptor_KeyLength(t *testing.T) {
	_, err := crypto.NewXChaChaEncryptor([]byte("short"))
	assert.Error(t, err)

	_, err = crypto.NewXChaChaEncryptorFromBase64(base64.StdEncoding.EncodeToString(testKey()))
	assert.NoError(t, err)

	_, err = crypto.NewXChaChaEncryptorFromBase64("%%%")
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	enc := crypto.Noop()

	sealed, err := enc.Encrypt("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", sealed)

	plain, err := enc.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "plain", plain)
}
