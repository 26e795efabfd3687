package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/annix-labs/fieldflow/internal/domain/platform"
	"github.com/annix-labs/fieldflow/internal/infrastructure/persistence/mappers"
	"github.com/annix-labs/fieldflow/internal/infrastructure/persistence/models"
	"github.com/annix-labs/fieldflow/internal/shared/errors"
)

// MeetingRecordRepository implements platform.RecordRepository using GORM
// with Model/Mapper separation.
type MeetingRecordRepository struct {
	db     *gorm.DB
	mapper mappers.MeetingRecordMapper
}

// NewMeetingRecordRepository creates a new MeetingRecordRepository.
func NewMeetingRecordRepository(db *gorm.DB) platform.RecordRepository {
	return &MeetingRecordRepository{
		db:     db,
		mapper: mappers.NewMeetingRecordMapper(),
	}
}

func (r *MeetingRecordRepository) Create(ctx context.Context, rec *platform.MeetingRecord) error {
	model := r.mapper.ToModel(rec)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("meeting record already exists for this connection and meeting")
		}
		return fmt.Errorf("failed to create meeting record: %w", err)
	}
	rec.ID = model.ID
	return nil
}

func (r *MeetingRecordRepository) GetByID(ctx context.Context, id uint) (*platform.MeetingRecord, error) {
	var model models.MeetingRecordModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get meeting record by ID: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *MeetingRecordRepository) GetByConnectionAndPlatformMeeting(ctx context.Context, connectionID uint, platformMeetingID string) (*platform.MeetingRecord, error) {
	var model models.MeetingRecordModel
	err := r.db.WithContext(ctx).
		Where("connection_id = ? AND platform_meeting_id = ?", connectionID, platformMeetingID).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get meeting record: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *MeetingRecordRepository) ListByConnection(ctx context.Context, connectionID uint, limit int) ([]*platform.MeetingRecord, error) {
	query := r.db.WithContext(ctx).
		Where("connection_id = ?", connectionID).
		Order("start_time DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var recordModels []*models.MeetingRecordModel
	if err := query.Find(&recordModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list meeting records: %w", err)
	}
	return r.mapper.ToDomainList(recordModels), nil
}

func (r *MeetingRecordRepository) ListPending(ctx context.Context, limit int) ([]*platform.MeetingRecord, error) {
	query := r.db.WithContext(ctx).
		Where("status = ?", string(platform.RecordingStatusPending)).
		Order("start_time DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var recordModels []*models.MeetingRecordModel
	if err := query.Find(&recordModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending meeting records: %w", err)
	}
	return r.mapper.ToDomainList(recordModels), nil
}

func (r *MeetingRecordRepository) Update(ctx context.Context, rec *platform.MeetingRecord) error {
	model := r.mapper.ToModel(rec)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return fmt.Errorf("failed to update meeting record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("meeting record not found")
	}
	return nil
}

func (r *MeetingRecordRepository) DeleteByConnection(ctx context.Context, connectionID uint) error {
	err := r.db.WithContext(ctx).
		Where("connection_id = ?", connectionID).
		Delete(&models.MeetingRecordModel{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete meeting records for connection: %w", err)
	}
	return nil
}
