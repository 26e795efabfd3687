// Package crypto holds the token-at-rest cipher and webhook signature
// primitives used by the platform adapters.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/annix-labs/fieldflow/internal/shared/logger"
)

const cipherTextPrefix = "enc:"

// TokenCipher encrypts provider tokens before they reach the database.
// An empty key runs the cipher in passthrough mode so development setups
// work without key material; production deployments must set the key.
type TokenCipher struct {
	aead cipher.AEAD
}

func NewTokenCipher(key string, log logger.Interface) (*TokenCipher, error) {
	if key == "" {
		log.Warnw("token encryption key not set, storing provider tokens unencrypted")
		return &TokenCipher{}, nil
	}

	// Derive a fixed-size key so operators can configure any passphrase.
	derived := sha256.Sum256([]byte(key))
	block, err := aes.NewCipher(derived[:])
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token cipher: %w", err)
	}

	return &TokenCipher{aead: aead}, nil
}

// Encrypt seals a plaintext token. Passthrough mode returns it unchanged.
func (c *TokenCipher) Encrypt(plaintext string) (string, error) {
	if c.aead == nil || plaintext == "" {
		return plaintext, nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return cipherTextPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a stored token. Values without the cipher prefix are
// returned as-is, covering passthrough mode and rows written before a
// key was configured.
func (c *TokenCipher) Decrypt(stored string) (string, error) {
	if !strings.HasPrefix(stored, cipherTextPrefix) {
		return stored, nil
	}
	if c.aead == nil {
		return "", fmt.Errorf("encrypted token found but no encryption key is configured")
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, cipherTextPrefix))
	if err != nil {
		return "", fmt.Errorf("failed to decode stored token: %w", err)
	}
	if len(raw) < c.aead.NonceSize() {
		return "", fmt.Errorf("stored token is truncated")
	}

	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt stored token: %w", err)
	}
	return string(plaintext), nil
}
