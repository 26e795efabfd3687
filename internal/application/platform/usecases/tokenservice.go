// Package usecases implements the platform-integration application layer:
// OAuth connection lifecycle, meeting sync, webhook handling and the
// recording retrieval pipeline.
package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/annix-labs/fieldflow/internal/domain/platform"
	"github.com/annix-labs/fieldflow/internal/infrastructure/crypto"
	"github.com/annix-labs/fieldflow/internal/infrastructure/providers"
	"github.com/annix-labs/fieldflow/internal/shared/biztime"
	"github.com/annix-labs/fieldflow/internal/shared/logger"
)

// tokenRefreshMargin is how close to expiry a token gets refreshed before
// an API call instead of being used as-is.
const tokenRefreshMargin = 5 * time.Minute

// TokenService hands out usable access tokens for a connection, refreshing
// and persisting them when they are about to expire.
type TokenService struct {
	connRepo platform.ConnectionRepository
	registry *providers.Registry
	cipher   *crypto.TokenCipher
	logger   logger.Interface
}

func NewTokenService(
	connRepo platform.ConnectionRepository,
	registry *providers.Registry,
	cipher *crypto.TokenCipher,
	log logger.Interface,
) *TokenService {
	return &TokenService{
		connRepo: connRepo,
		registry: registry,
		cipher:   cipher,
		logger:   log,
	}
}

// AccessToken returns a plaintext access token valid for at least the
// refresh margin. When a refresh happens the rotated credentials are
// persisted on the connection before the token is returned.
func (s *TokenService) AccessToken(ctx context.Context, conn *platform.Connection) (string, error) {
	if !conn.TokenExpiresWithin(tokenRefreshMargin) {
		return s.cipher.Decrypt(conn.AccessTokenEncrypted)
	}
	return s.Refresh(ctx, conn)
}

// Refresh forces a token refresh regardless of the current expiry.
// Connections without a refresh token are marked token_expired and the
// user has to re-connect.
func (s *TokenService) Refresh(ctx context.Context, conn *platform.Connection) (string, error) {
	if !conn.HasRefreshToken() {
		conn.MarkTokenExpired("access token expired and no refresh token is stored")
		if err := s.connRepo.Update(ctx, conn); err != nil {
			s.logger.Errorw("failed to persist token_expired state",
				"connection_id", conn.ID, "error", err)
		}
		return "", platform.ErrRefreshTokenMissing
	}

	provider := s.registry.Get(conn.Platform)
	if provider == nil {
		return "", fmt.Errorf("no provider configured for platform %s", conn.Platform)
	}

	refreshToken, err := s.cipher.Decrypt(conn.RefreshTokenEncrypted)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	tokens, err := provider.RefreshAccessToken(ctx, refreshToken)
	if err != nil {
		conn.MarkTokenExpired(fmt.Sprintf("token refresh failed: %v", err))
		if updateErr := s.connRepo.Update(ctx, conn); updateErr != nil {
			s.logger.Errorw("failed to persist token_expired state",
				"connection_id", conn.ID, "error", updateErr)
		}
		return "", fmt.Errorf("failed to refresh access token: %w", err)
	}

	if err := s.storeTokens(ctx, conn, tokens); err != nil {
		return "", err
	}

	s.logger.Infow("refreshed provider access token",
		"connection_id", conn.ID,
		"platform", conn.Platform,
		"rotated_refresh_token", tokens.RefreshToken != "")
	return tokens.AccessToken, nil
}

// RefreshExpiring sweeps connections whose tokens expire before the given
// horizon and refreshes them proactively. Per-connection failures are
// logged and do not stop the sweep.
func (s *TokenService) RefreshExpiring(ctx context.Context, horizon time.Duration) (int, error) {
	deadline := biztime.NowUTC().Add(horizon)
	conns, err := s.connRepo.ListNeedingTokenRefresh(ctx, deadline)
	if err != nil {
		return 0, fmt.Errorf("failed to list connections needing refresh: %w", err)
	}

	refreshed := 0
	for _, conn := range conns {
		if _, err := s.Refresh(ctx, conn); err != nil {
			s.logger.Warnw("proactive token refresh failed",
				"connection_id", conn.ID,
				"platform", conn.Platform,
				"error", err)
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

// storeTokens encrypts and persists a token set on the connection. An
// empty rotated refresh token keeps the stored one.
func (s *TokenService) storeTokens(ctx context.Context, conn *platform.Connection, tokens *providers.TokenSet) error {
	accessEnc, err := s.cipher.Encrypt(tokens.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}
	refreshEnc := ""
	if tokens.RefreshToken != "" {
		refreshEnc, err = s.cipher.Encrypt(tokens.RefreshToken)
		if err != nil {
			return fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
	}

	conn.SetTokens(accessEnc, refreshEnc, tokens.ExpiresAt, tokens.Scope)
	if err := s.connRepo.Update(ctx, conn); err != nil {
		return fmt.Errorf("failed to persist refreshed tokens: %w", err)
	}
	return nil
}
