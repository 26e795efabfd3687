package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/annix-labs/fieldflow/internal/domain/meeting"
	"github.com/annix-labs/fieldflow/internal/infrastructure/persistence/mappers"
	"github.com/annix-labs/fieldflow/internal/infrastructure/persistence/models"
	"github.com/annix-labs/fieldflow/internal/shared/errors"
)

// MeetingRecordingRepository implements meeting.RecordingRepository using
// GORM with Model/Mapper separation.
type MeetingRecordingRepository struct {
	db     *gorm.DB
	mapper mappers.MeetingRecordingMapper
}

// NewMeetingRecordingRepository creates a new MeetingRecordingRepository.
func NewMeetingRecordingRepository(db *gorm.DB) meeting.RecordingRepository {
	return &MeetingRecordingRepository{
		db:     db,
		mapper: mappers.NewMeetingRecordingMapper(),
	}
}

func (r *MeetingRecordingRepository) Create(ctx context.Context, rec *meeting.Recording) error {
	model := r.mapper.ToModel(rec)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("recording already exists for this meeting")
		}
		return fmt.Errorf("failed to create meeting recording: %w", err)
	}
	rec.ID = model.ID
	return nil
}

func (r *MeetingRecordingRepository) GetByMeetingID(ctx context.Context, meetingID uint) (*meeting.Recording, error) {
	var model models.MeetingRecordingModel
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recording by meeting ID: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *MeetingRecordingRepository) Update(ctx context.Context, rec *meeting.Recording) error {
	model := r.mapper.ToModel(rec)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return fmt.Errorf("failed to update meeting recording: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("meeting recording not found")
	}
	return nil
}
