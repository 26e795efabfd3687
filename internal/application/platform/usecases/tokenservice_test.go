package usecases

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annix-labs/fieldflow/internal/domain/platform"
	"github.com/annix-labs/fieldflow/internal/infrastructure/providers"
)

func TestTokenService_NoRefreshWhenTokenFresh(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	conn := env.seedConnection(t, 1, platform.PlatformZoom)

	expiry := time.Now().UTC().Add(6 * time.Minute)
	conn.TokenExpiresAt = &expiry

	token, err := env.tokens.AccessToken(context.Background(), conn)
	require.NoError(t, err)
	assert.Equal(t, "access-token", token)
	assert.Zero(t, env.provider.refreshCalls)
}

func TestTokenService_RefreshInsideMargin(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	conn := env.seedConnection(t, 1, platform.PlatformZoom)

	expiry := time.Now().UTC().Add(4 * time.Minute)
	conn.TokenExpiresAt = &expiry

	token, err := env.tokens.AccessToken(context.Background(), conn)
	require.NoError(t, err)
	assert.Equal(t, "refreshed-access", token)
	assert.Equal(t, 1, env.provider.refreshCalls)

	// Rotated credentials are persisted.
	stored, err := env.connRepo.GetByID(context.Background(), conn.ID)
	require.NoError(t, err)
	access, err := env.cipher.Decrypt(stored.AccessTokenEncrypted)
	require.NoError(t, err)
	assert.Equal(t, "refreshed-access", access)
	refresh, err := env.cipher.Decrypt(stored.RefreshTokenEncrypted)
	require.NoError(t, err)
	assert.Equal(t, "rotated-refresh", refresh)
}

func TestTokenService_NoExpiryNeverRefreshes(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	conn := env.seedConnection(t, 1, platform.PlatformZoom)
	conn.TokenExpiresAt = nil

	token, err := env.tokens.AccessToken(context.Background(), conn)
	require.NoError(t, err)
	assert.Equal(t, "access-token", token)
	assert.Zero(t, env.provider.refreshCalls)
}

func TestTokenService_MissingRefreshTokenMarksExpired(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	conn := env.seedConnection(t, 1, platform.PlatformZoom)

	expired := time.Now().UTC().Add(-time.Minute)
	conn.TokenExpiresAt = &expired
	conn.RefreshTokenEncrypted = ""
	require.NoError(t, env.connRepo.Update(context.Background(), conn))

	_, err := env.tokens.AccessToken(context.Background(), conn)
	require.ErrorIs(t, err, platform.ErrRefreshTokenMissing)

	stored, err := env.connRepo.GetByID(context.Background(), conn.ID)
	require.NoError(t, err)
	assert.Equal(t, platform.ConnectionStatusTokenExpired, stored.Status)
	assert.NotEmpty(t, stored.LastError)
}

func TestTokenService_RefreshFailureMarksExpired(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	conn := env.seedConnection(t, 1, platform.PlatformZoom)

	env.provider.refreshFn = func(string) (*providers.TokenSet, error) {
		return nil, fmt.Errorf("invalid_grant")
	}

	expired := time.Now().UTC().Add(-time.Minute)
	conn.TokenExpiresAt = &expired

	_, err := env.tokens.AccessToken(context.Background(), conn)
	require.Error(t, err)

	stored, err := env.connRepo.GetByID(context.Background(), conn.ID)
	require.NoError(t, err)
	assert.Equal(t, platform.ConnectionStatusTokenExpired, stored.Status)
	assert.Contains(t, stored.LastError, "invalid_grant")
}

func TestTokenService_EmptyRotatedRefreshKeepsStoredOne(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)
	conn := env.seedConnection(t, 1, platform.PlatformZoom)

	env.provider.refreshFn = func(string) (*providers.TokenSet, error) {
		expiry := time.Now().UTC().Add(time.Hour)
		return &providers.TokenSet{AccessToken: "refreshed-access", ExpiresAt: &expiry}, nil
	}

	expired := time.Now().UTC().Add(-time.Minute)
	conn.TokenExpiresAt = &expired

	_, err := env.tokens.AccessToken(context.Background(), conn)
	require.NoError(t, err)

	stored, err := env.connRepo.GetByID(context.Background(), conn.ID)
	require.NoError(t, err)
	refresh, err := env.cipher.Decrypt(stored.RefreshTokenEncrypted)
	require.NoError(t, err)
	assert.Equal(t, "refresh-token", refresh)
}

func TestTokenService_RefreshExpiringSweep(t *testing.T) {
	env := newTestEnv(t, platform.PlatformZoom)

	expiring := env.seedConnection(t, 1, platform.PlatformZoom)
	soon := time.Now().UTC().Add(30 * time.Minute)
	expiring.TokenExpiresAt = &soon
	require.NoError(t, env.connRepo.Update(context.Background(), expiring))

	healthy := env.seedConnection(t, 2, platform.PlatformZoom)
	later := time.Now().UTC().Add(3 * time.Hour)
	healthy.TokenExpiresAt = &later
	require.NoError(t, env.connRepo.Update(context.Background(), healthy))

	refreshed, err := env.tokens.RefreshExpiring(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, refreshed)
	assert.Equal(t, 1, env.provider.refreshCalls)
}
