package usecases

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/annix-labs/fieldflow/internal/domain/platform"
	"github.com/annix-labs/fieldflow/internal/infrastructure/providers"
	"github.com/annix-labs/fieldflow/internal/shared/biztime"
	"github.com/annix-labs/fieldflow/internal/shared/errors"
	"github.com/annix-labs/fieldflow/internal/shared/logger"
)

// GetOAuthURLCommand asks for a consent URL for one platform.
type GetOAuthURLCommand struct {
	Platform string
}

// GetOAuthURLResult carries the consent URL and the opaque state the
// callback must echo back.
type GetOAuthURLResult struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// oauthState is the payload encoded into the OAuth state parameter.
type oauthState struct {
	Platform  string `json:"platform"`
	Timestamp int64  `json:"timestamp"`
	Nonce     string `json:"nonce"`
}

// GetOAuthURLUseCase builds provider consent URLs.
type GetOAuthURLUseCase struct {
	registry *providers.Registry
	logger   logger.Interface
}

func NewGetOAuthURLUseCase(registry *providers.Registry, log logger.Interface) *GetOAuthURLUseCase {
	return &GetOAuthURLUseCase{registry: registry, logger: log}
}

func (uc *GetOAuthURLUseCase) Execute(cmd GetOAuthURLCommand) (*GetOAuthURLResult, error) {
	p, err := platform.ParsePlatform(cmd.Platform)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	provider := uc.registry.Get(p)
	if provider == nil {
		return nil, errors.NewNotFoundError(fmt.Sprintf("platform %s is not configured", p))
	}

	state, err := encodeOAuthState(p)
	if err != nil {
		return nil, errors.NewInternalError("failed to build OAuth state")
	}

	return &GetOAuthURLResult{
		URL:   provider.OAuthURL(state),
		State: state,
	}, nil
}

func encodeOAuthState(p platform.Platform) (string, error) {
	payload, err := json.Marshal(oauthState{
		Platform:  string(p),
		Timestamp: biztime.NowUTC().Unix(),
		Nonce:     uuid.NewString(),
	})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(payload), nil
}

func decodeOAuthState(state string) (*oauthState, error) {
	raw, err := base64.RawURLEncoding.DecodeString(state)
	if err != nil {
		return nil, err
	}
	var st oauthState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
