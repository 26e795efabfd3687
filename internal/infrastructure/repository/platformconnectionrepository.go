package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/annix-labs/fieldflow/internal/domain/platform"
	"github.com/annix-labs/fieldflow/internal/infrastructure/persistence/mappers"
	"github.com/annix-labs/fieldflow/internal/infrastructure/persistence/models"
	"github.com/annix-labs/fieldflow/internal/shared/errors"
)

// PlatformConnectionRepository implements platform.ConnectionRepository
// using GORM with Model/Mapper separation.
type PlatformConnectionRepository struct {
	db     *gorm.DB
	mapper mappers.PlatformConnectionMapper
}

// NewPlatformConnectionRepository creates a new PlatformConnectionRepository.
func NewPlatformConnectionRepository(db *gorm.DB) platform.ConnectionRepository {
	return &PlatformConnectionRepository{
		db:     db,
		mapper: mappers.NewPlatformConnectionMapper(),
	}
}

func (r *PlatformConnectionRepository) Create(ctx context.Context, conn *platform.Connection) error {
	model := r.mapper.ToModel(conn)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("connection already exists for this user and platform")
		}
		return fmt.Errorf("failed to create platform connection: %w", err)
	}
	// Sync auto-generated ID back to the domain entity
	conn.ID = model.ID
	return nil
}

func (r *PlatformConnectionRepository) GetByID(ctx context.Context, id uint) (*platform.Connection, error) {
	var model models.PlatformConnectionModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get platform connection by ID: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *PlatformConnectionRepository) GetByUserAndPlatform(ctx context.Context, userID uint, p platform.Platform) (*platform.Connection, error) {
	var model models.PlatformConnectionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND platform = ?", userID, string(p)).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get platform connection: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *PlatformConnectionRepository) GetByPlatformAccount(ctx context.Context, p platform.Platform, accountID string) (*platform.Connection, error) {
	var model models.PlatformConnectionModel
	err := r.db.WithContext(ctx).
		Where("platform = ? AND account_id = ? AND status = ?", string(p), accountID, string(platform.ConnectionStatusActive)).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get connection by platform account: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *PlatformConnectionRepository) ListByUser(ctx context.Context, userID uint) ([]*platform.Connection, error) {
	var connectionModels []*models.PlatformConnectionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&connectionModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list connections by user: %w", err)
	}
	return r.mapper.ToDomainList(connectionModels), nil
}

func (r *PlatformConnectionRepository) ListActive(ctx context.Context) ([]*platform.Connection, error) {
	var connectionModels []*models.PlatformConnectionModel
	err := r.db.WithContext(ctx).
		Where("status = ?", string(platform.ConnectionStatusActive)).
		Find(&connectionModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active connections: %w", err)
	}
	return r.mapper.ToDomainList(connectionModels), nil
}

func (r *PlatformConnectionRepository) ListNeedingTokenRefresh(ctx context.Context, deadline time.Time) ([]*platform.Connection, error) {
	var connectionModels []*models.PlatformConnectionModel
	err := r.db.WithContext(ctx).
		Where("status = ?", string(platform.ConnectionStatusActive)).
		Where("refresh_token_encrypted <> ''").
		Where("token_expires_at IS NOT NULL AND token_expires_at <= ?", deadline).
		Find(&connectionModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list connections needing token refresh: %w", err)
	}
	return r.mapper.ToDomainList(connectionModels), nil
}

func (r *PlatformConnectionRepository) Update(ctx context.Context, conn *platform.Connection) error {
	model := r.mapper.ToModel(conn)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return fmt.Errorf("failed to update platform connection: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("platform connection not found")
	}
	return nil
}

// Delete removes the connection together with its meeting records so a
// disconnect leaves nothing orphaned.
func (r *PlatformConnectionRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("connection_id = ?", id).Delete(&models.MeetingRecordModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete meeting records for connection: %w", err)
		}

		result := tx.Delete(&models.PlatformConnectionModel{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete platform connection: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return errors.NewNotFoundError("platform connection not found")
		}
		return nil
	})
}
