package usecases

import (
	"context"

	"github.com/annix-labs/fieldflow/internal/domain/platform"
	"github.com/annix-labs/fieldflow/internal/infrastructure/providers"
	"github.com/annix-labs/fieldflow/internal/shared/logger"
)

// DisconnectPlatformCommand removes a connection and its synced records.
type DisconnectPlatformCommand struct {
	UserID       uint
	ConnectionID uint
}

// DisconnectPlatformUseCase tears down a connection: best-effort webhook
// unregistration, then deletion of the connection and its meeting records.
// Stored recordings and linked business meetings are kept.
type DisconnectPlatformUseCase struct {
	connRepo platform.ConnectionRepository
	registry *providers.Registry
	tokens   *TokenService
	logger   logger.Interface
}

func NewDisconnectPlatformUseCase(
	connRepo platform.ConnectionRepository,
	registry *providers.Registry,
	tokens *TokenService,
	log logger.Interface,
) *DisconnectPlatformUseCase {
	return &DisconnectPlatformUseCase{
		connRepo: connRepo,
		registry: registry,
		tokens:   tokens,
		logger:   log,
	}
}

func (uc *DisconnectPlatformUseCase) Execute(ctx context.Context, cmd DisconnectPlatformCommand) error {
	conn, err := ownedConnection(ctx, uc.connRepo, cmd.UserID, cmd.ConnectionID)
	if err != nil {
		return err
	}

	uc.unregisterWebhook(ctx, conn)

	if err := uc.connRepo.Delete(ctx, conn.ID); err != nil {
		return err
	}

	uc.logger.Infow("platform disconnected",
		"user_id", cmd.UserID,
		"platform", conn.Platform,
		"connection_id", conn.ID)
	return nil
}

// unregisterWebhook removes the provider push subscription. The deletion
// proceeds even when this fails; orphaned subscriptions expire on their own.
func (uc *DisconnectPlatformUseCase) unregisterWebhook(ctx context.Context, conn *platform.Connection) {
	if conn.WebhookSubscriptionID == "" {
		return
	}
	provider := uc.registry.Get(conn.Platform)
	if provider == nil {
		return
	}

	accessToken, err := uc.tokens.AccessToken(ctx, conn)
	if err != nil {
		uc.logger.Warnw("skipping webhook unregistration, no usable token",
			"connection_id", conn.ID, "error", err)
		return
	}
	if err := provider.UnregisterWebhook(ctx, accessToken, conn.WebhookSubscriptionID); err != nil {
		uc.logger.Warnw("webhook unregistration failed",
			"connection_id", conn.ID,
			"subscription_id", conn.WebhookSubscriptionID,
			"error", err)
	}
}
