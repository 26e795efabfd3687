package mappers

import (
	"github.com/annix-labs/fieldflow/internal/domain/meeting"
	"github.com/annix-labs/fieldflow/internal/domain/platform"
	"github.com/annix-labs/fieldflow/internal/infrastructure/persistence/models"
	"github.com/annix-labs/fieldflow/internal/shared/mapper"
)

// MeetingMapper handles the conversion between domain entities and
// persistence models.
type MeetingMapper interface {
	ToModel(entity *meeting.Meeting) *models.MeetingModel
	ToDomain(model *models.MeetingModel) *meeting.Meeting
	ToDomainList(models []*models.MeetingModel) []*meeting.Meeting
}

// MeetingMapperImpl is the concrete implementation of MeetingMapper.
type MeetingMapperImpl struct{}

// NewMeetingMapper creates a new MeetingMapper.
func NewMeetingMapper() MeetingMapper {
	return &MeetingMapperImpl{}
}

func (m *MeetingMapperImpl) ToModel(entity *meeting.Meeting) *models.MeetingModel {
	if entity == nil {
		return nil
	}
	return &models.MeetingModel{
		ID:             entity.ID,
		SalesRepID:     entity.SalesRepID,
		Title:          entity.Title,
		CustomerName:   entity.CustomerName,
		Status:         string(entity.Status),
		ScheduledStart: entity.ScheduledStart,
		ScheduledEnd:   entity.ScheduledEnd,
		JoinURL:        entity.JoinURL,
		Platform:       string(entity.Platform),
		CreatedAt:      entity.CreatedAt,
		UpdatedAt:      entity.UpdatedAt,
	}
}

func (m *MeetingMapperImpl) ToDomain(model *models.MeetingModel) *meeting.Meeting {
	if model == nil {
		return nil
	}
	return &meeting.Meeting{
		ID:             model.ID,
		SalesRepID:     model.SalesRepID,
		Title:          model.Title,
		CustomerName:   model.CustomerName,
		Status:         meeting.MeetingStatus(model.Status),
		ScheduledStart: model.ScheduledStart,
		ScheduledEnd:   model.ScheduledEnd,
		JoinURL:        model.JoinURL,
		Platform:       platform.Platform(model.Platform),
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

func (m *MeetingMapperImpl) ToDomainList(items []*models.MeetingModel) []*meeting.Meeting {
	return mapper.MapSlicePtr(items, m.ToDomain)
}
