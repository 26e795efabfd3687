package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annix-labs/fieldflow/internal/shared/logger"
)

func TestTokenCipher_RoundTrip(t *testing.T) {
	cipher, err := NewTokenCipher("unit-test-key", logger.NewLogger())
	require.NoError(t, err)

	sealed, err := cipher.Encrypt("ya29.access-token")
	require.NoError(t, err)
	assert.NotEqual(t, "ya29.access-token", sealed)
	assert.Contains(t, sealed, "enc:")

	opened, err := cipher.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "ya29.access-token", opened)
}

func TestTokenCipher_EncryptProducesUniqueCiphertext(t *testing.T) {
	cipher, err := NewTokenCipher("unit-test-key", logger.NewLogger())
	require.NoError(t, err)

	first, err := cipher.Encrypt("same-token")
	require.NoError(t, err)
	second, err := cipher.Encrypt("same-token")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestTokenCipher_PassthroughWithoutKey(t *testing.T) {
	cipher, err := NewTokenCipher("", logger.NewLogger())
	require.NoError(t, err)

	sealed, err := cipher.Encrypt("plain-token")
	require.NoError(t, err)
	assert.Equal(t, "plain-token", sealed)

	opened, err := cipher.Decrypt("plain-token")
	require.NoError(t, err)
	assert.Equal(t, "plain-token", opened)
}

func TestTokenCipher_DecryptPlaintextRowWithKeyConfigured(t *testing.T) {
	cipher, err := NewTokenCipher("unit-test-key", logger.NewLogger())
	require.NoError(t, err)

	// Rows written before the key was configured stay readable.
	opened, err := cipher.Decrypt("legacy-plaintext-token")
	require.NoError(t, err)
	assert.Equal(t, "legacy-plaintext-token", opened)
}

func TestTokenCipher_DecryptRejectsTampering(t *testing.T) {
	cipher, err := NewTokenCipher("unit-test-key", logger.NewLogger())
	require.NoError(t, err)

	sealed, err := cipher.Encrypt("secret")
	require.NoError(t, err)

	tampered := sealed[:len(sealed)-2] + "AA"
	_, err = cipher.Decrypt(tampered)
	assert.Error(t, err)
}

func TestTokenCipher_EncryptedRowWithoutKeyFails(t *testing.T) {
	withKey, err := NewTokenCipher("unit-test-key", logger.NewLogger())
	require.NoError(t, err)
	sealed, err := withKey.Encrypt("secret")
	require.NoError(t, err)

	withoutKey, err := NewTokenCipher("", logger.NewLogger())
	require.NoError(t, err)
	_, err = withoutKey.Decrypt(sealed)
	assert.Error(t, err)
}
