package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/annix-labs/fieldflow/internal/domain/meeting"
	"github.com/annix-labs/fieldflow/internal/infrastructure/persistence/mappers"
	"github.com/annix-labs/fieldflow/internal/infrastructure/persistence/models"
	"github.com/annix-labs/fieldflow/internal/shared/errors"
)

// MeetingRepository implements meeting.Repository using GORM with
// Model/Mapper separation.
type MeetingRepository struct {
	db     *gorm.DB
	mapper mappers.MeetingMapper
}

// NewMeetingRepository creates a new MeetingRepository.
func NewMeetingRepository(db *gorm.DB) meeting.Repository {
	return &MeetingRepository{
		db:     db,
		mapper: mappers.NewMeetingMapper(),
	}
}

func (r *MeetingRepository) Create(ctx context.Context, m *meeting.Meeting) error {
	model := r.mapper.ToModel(m)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create meeting: %w", err)
	}
	m.ID = model.ID
	return nil
}

func (r *MeetingRepository) GetByID(ctx context.Context, id uint) (*meeting.Meeting, error) {
	var model models.MeetingModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get meeting by ID: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *MeetingRepository) GetByJoinURL(ctx context.Context, salesRepID uint, joinURL string) (*meeting.Meeting, error) {
	var model models.MeetingModel
	err := r.db.WithContext(ctx).
		Where("sales_rep_id = ? AND join_url = ?", salesRepID, joinURL).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get meeting by join URL: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *MeetingRepository) ListInWindow(ctx context.Context, salesRepID uint, from, to time.Time) ([]*meeting.Meeting, error) {
	var meetingModels []*models.MeetingModel
	err := r.db.WithContext(ctx).
		Where("sales_rep_id = ?", salesRepID).
		Where("scheduled_start IS NOT NULL AND scheduled_start BETWEEN ? AND ?", from, to).
		Order("scheduled_start ASC").
		Find(&meetingModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings in window: %w", err)
	}
	return r.mapper.ToDomainList(meetingModels), nil
}

func (r *MeetingRepository) Update(ctx context.Context, m *meeting.Meeting) error {
	model := r.mapper.ToModel(m)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return fmt.Errorf("failed to update meeting: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("meeting not found")
	}
	return nil
}
