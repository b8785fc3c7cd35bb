// Package crypto encrypts connection credentials before they are written to durable storage.
package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

var ErrInvalidCiphertext = errors.New("invalid ciphertext")

// TextEncryptor encrypts and decrypts short strings such as access tokens.
// Encrypting the empty string yields the empty string.
type TextEncryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

type noopEncryptor struct{}

// Noop returns a TextEncryptor that stores text as is.
//
//nolint:ireturn
func Noop() TextEncryptor { return noopEncryptor{} }

func (noopEncryptor) Encrypt(plaintext string) (string, error)  { return plaintext, nil }
func (noopEncryptor) Decrypt(ciphertext string) (string, error) { return ciphertext, nil }

// XChaChaEncryptor encrypts with XChaCha20-Poly1305 under a 32 byte key. The output is the
// base64 encoded random nonce followed by the sealed text.
type XChaChaEncryptor struct {
	key []byte
}

// NewXChaChaEncryptor returns an encryptor for key, which must be 32 bytes long.
func NewXChaChaEncryptor(key []byte) (*XChaChaEncryptor, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return &XChaChaEncryptor{key: append([]byte(nil), key...)}, nil
}

// NewXChaChaEncryptorFromBase64 decodes a standard base64 key.
func NewXChaChaEncryptorFromBase64(encoded string) (*XChaChaEncryptor, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	return NewXChaChaEncryptor(key)
}

func (e *XChaChaEncryptor) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	aead, err := chacha20poly1305.NewX(e.key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (e *XChaChaEncryptor) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	sealed, err := base64.RawURLEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidCiphertext, err)
	}

	aead, err := chacha20poly1305.NewX(e.key)
	if err != nil {
		return "", err
	}
	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return "", fmt.Errorf("%w: too short", ErrInvalidCiphertext)
	}

	nonce, box := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, box, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidCiphertext, err)
	}
	return string(plain), nil
}
