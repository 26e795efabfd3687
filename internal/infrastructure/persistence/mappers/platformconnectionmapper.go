package mappers

import (
	"github.com/annix-labs/fieldflow/internal/domain/platform"
	"github.com/annix-labs/fieldflow/internal/infrastructure/persistence/models"
	"github.com/annix-labs/fieldflow/internal/shared/mapper"
)

// PlatformConnectionMapper handles the conversion between domain entities
// and persistence models.
type PlatformConnectionMapper interface {
	// ToModel converts a domain entity to a persistence model.
	ToModel(entity *platform.Connection) *models.PlatformConnectionModel

	// ToDomain converts a persistence model to a domain entity.
	ToDomain(model *models.PlatformConnectionModel) *platform.Connection

	// ToDomainList converts multiple persistence models to domain entities.
	ToDomainList(models []*models.PlatformConnectionModel) []*platform.Connection
}

// PlatformConnectionMapperImpl is the concrete implementation of PlatformConnectionMapper.
type PlatformConnectionMapperImpl struct{}

// NewPlatformConnectionMapper creates a new PlatformConnectionMapper.
func NewPlatformConnectionMapper() PlatformConnectionMapper {
	return &PlatformConnectionMapperImpl{}
}

func (m *PlatformConnectionMapperImpl) ToModel(entity *platform.Connection) *models.PlatformConnectionModel {
	if entity == nil {
		return nil
	}
	return &models.PlatformConnectionModel{
		ID:                    entity.ID,
		UserID:                entity.UserID,
		Platform:              string(entity.Platform),
		AccountEmail:          entity.AccountEmail,
		AccountName:           entity.AccountName,
		AccountID:             entity.AccountID,
		AccessTokenEncrypted:  entity.AccessTokenEncrypted,
		RefreshTokenEncrypted: entity.RefreshTokenEncrypted,
		TokenExpiresAt:        entity.TokenExpiresAt,
		TokenScope:            entity.TokenScope,
		WebhookSubscriptionID: entity.WebhookSubscriptionID,
		WebhookExpiresAt:      entity.WebhookExpiresAt,
		Status:                string(entity.Status),
		LastError:             entity.LastError,
		LastErrorAt:           entity.LastErrorAt,
		AutoFetchRecordings:   entity.AutoFetchRecordings,
		AutoTranscribe:        entity.AutoTranscribe,
		AutoSendSummary:       entity.AutoSendSummary,
		LastRecordingSyncAt:   entity.LastRecordingSyncAt,
		CreatedAt:             entity.CreatedAt,
		UpdatedAt:             entity.UpdatedAt,
	}
}

func (m *PlatformConnectionMapperImpl) ToDomain(model *models.PlatformConnectionModel) *platform.Connection {
	if model == nil {
		return nil
	}
	return &platform.Connection{
		ID:                    model.ID,
		UserID:                model.UserID,
		Platform:              platform.Platform(model.Platform),
		AccountEmail:          model.AccountEmail,
		AccountName:           model.AccountName,
		AccountID:             model.AccountID,
		AccessTokenEncrypted:  model.AccessTokenEncrypted,
		RefreshTokenEncrypted: model.RefreshTokenEncrypted,
		TokenExpiresAt:        model.TokenExpiresAt,
		TokenScope:            model.TokenScope,
		WebhookSubscriptionID: model.WebhookSubscriptionID,
		WebhookExpiresAt:      model.WebhookExpiresAt,
		Status:                platform.ConnectionStatus(model.Status),
		LastError:             model.LastError,
		LastErrorAt:           model.LastErrorAt,
		AutoFetchRecordings:   model.AutoFetchRecordings,
		AutoTranscribe:        model.AutoTranscribe,
		AutoSendSummary:       model.AutoSendSummary,
		LastRecordingSyncAt:   model.LastRecordingSyncAt,
		CreatedAt:             model.CreatedAt,
		UpdatedAt:             model.UpdatedAt,
	}
}

func (m *PlatformConnectionMapperImpl) ToDomainList(items []*models.PlatformConnectionModel) []*platform.Connection {
	return mapper.MapSlicePtr(items, m.ToDomain)
}
