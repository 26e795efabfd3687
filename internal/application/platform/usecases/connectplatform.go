package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/annix-labs/fieldflow/internal/application/platform/dto"
	"github.com/annix-labs/fieldflow/internal/domain/platform"
	"github.com/annix-labs/fieldflow/internal/infrastructure/crypto"
	"github.com/annix-labs/fieldflow/internal/infrastructure/providers"
	"github.com/annix-labs/fieldflow/internal/shared/errors"
	"github.com/annix-labs/fieldflow/internal/shared/logger"
)

// ConnectPlatformCommand completes the OAuth callback for a user.
type ConnectPlatformCommand struct {
	UserID   uint
	Platform string
	Code     string
	State    string
}

// ConnectPlatformResult returns the stored connection.
type ConnectPlatformResult struct {
	Connection *dto.ConnectionDTO `json:"connection"`
}

// ConnectPlatformUseCase exchanges an authorization code, resolves the
// provider account and upserts the user's connection for that platform.
type ConnectPlatformUseCase struct {
	connRepo       platform.ConnectionRepository
	registry       *providers.Registry
	cipher         *crypto.TokenCipher
	webhookBaseURL string
	logger         logger.Interface
}

func NewConnectPlatformUseCase(
	connRepo platform.ConnectionRepository,
	registry *providers.Registry,
	cipher *crypto.TokenCipher,
	webhookBaseURL string,
	log logger.Interface,
) *ConnectPlatformUseCase {
	return &ConnectPlatformUseCase{
		connRepo:       connRepo,
		registry:       registry,
		cipher:         cipher,
		webhookBaseURL: webhookBaseURL,
		logger:         log,
	}
}

func (uc *ConnectPlatformUseCase) Execute(ctx context.Context, cmd ConnectPlatformCommand) (*ConnectPlatformResult, error) {
	p, err := platform.ParsePlatform(cmd.Platform)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if cmd.Code == "" {
		return nil, errors.NewValidationError("authorization code is required")
	}
	if cmd.State != "" {
		st, err := decodeOAuthState(cmd.State)
		if err != nil {
			return nil, errors.NewValidationError("invalid OAuth state")
		}
		if st.Platform != string(p) {
			return nil, errors.NewValidationError("OAuth state does not match platform")
		}
	}

	provider := uc.registry.Get(p)
	if provider == nil {
		return nil, errors.NewNotFoundError(fmt.Sprintf("platform %s is not configured", p))
	}

	tokens, err := provider.ExchangeAuthCode(ctx, cmd.Code)
	if err != nil {
		uc.logger.Warnw("OAuth code exchange failed",
			"platform", p, "user_id", cmd.UserID, "error", err)
		return nil, errors.NewUpstreamError("failed to exchange authorization code")
	}

	account, err := provider.UserInfo(ctx, tokens.AccessToken)
	if err != nil {
		return nil, errors.NewUpstreamError("failed to fetch provider account info")
	}

	accessEnc, err := uc.cipher.Encrypt(tokens.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}
	refreshEnc := ""
	if tokens.RefreshToken != "" {
		refreshEnc, err = uc.cipher.Encrypt(tokens.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
	}

	conn, err := uc.connRepo.GetByUserAndPlatform(ctx, cmd.UserID, p)
	if err != nil {
		return nil, err
	}

	if conn == nil {
		conn, err = platform.NewConnection(cmd.UserID, p, account.Email, account.Name, account.ID)
		if err != nil {
			return nil, errors.NewValidationError(err.Error())
		}
		conn.SetTokens(accessEnc, refreshEnc, tokens.ExpiresAt, tokens.Scope)
		if err := uc.connRepo.Create(ctx, conn); err != nil {
			return nil, err
		}
	} else {
		conn.AccountEmail = account.Email
		conn.AccountName = account.Name
		conn.AccountID = account.ID
		conn.SetTokens(accessEnc, refreshEnc, tokens.ExpiresAt, tokens.Scope)
		if err := uc.connRepo.Update(ctx, conn); err != nil {
			return nil, err
		}
	}

	uc.registerWebhook(ctx, provider, conn, tokens.AccessToken)

	uc.logger.Infow("platform connected",
		"user_id", cmd.UserID,
		"platform", p,
		"account_email", account.Email,
		"connection_id", conn.ID)
	return &ConnectPlatformResult{Connection: dto.FromConnection(conn)}, nil
}

// registerWebhook subscribes to provider push events. Failures degrade the
// connection to polling only, so they are logged and swallowed.
func (uc *ConnectPlatformUseCase) registerWebhook(ctx context.Context, provider providers.Provider, conn *platform.Connection, accessToken string) {
	if uc.webhookBaseURL == "" {
		return
	}

	callbackURL := strings.TrimSuffix(uc.webhookBaseURL, "/") + webhookPathFor(conn.Platform)
	sub, err := provider.RegisterWebhook(ctx, accessToken, callbackURL)
	if err != nil {
		uc.logger.Warnw("webhook registration failed, connection will rely on polling",
			"connection_id", conn.ID,
			"platform", conn.Platform,
			"error", err)
		return
	}
	if sub == nil {
		return
	}

	conn.SetWebhookSubscription(sub.ID, sub.ExpiresAt)
	if err := uc.connRepo.Update(ctx, conn); err != nil {
		uc.logger.Errorw("failed to persist webhook subscription",
			"connection_id", conn.ID, "error", err)
	}
}

func webhookPathFor(p platform.Platform) string {
	switch p {
	case platform.PlatformTeams:
		return "/webhooks/teams"
	case platform.PlatformGoogleMeet:
		return "/webhooks/google-calendar"
	default:
		return "/webhooks/zoom"
	}
}
