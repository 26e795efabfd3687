package mappers

import (
	"github.com/annix-labs/fieldflow/internal/domain/meeting"
	"github.com/annix-labs/fieldflow/internal/domain/platform"
	"github.com/annix-labs/fieldflow/internal/infrastructure/persistence/models"
)

// MeetingRecordingMapper handles the conversion between domain entities
// and persistence models.
type MeetingRecordingMapper interface {
	ToModel(entity *meeting.Recording) *models.MeetingRecordingModel
	ToDomain(model *models.MeetingRecordingModel) *meeting.Recording
}

// MeetingRecordingMapperImpl is the concrete implementation of MeetingRecordingMapper.
type MeetingRecordingMapperImpl struct{}

// NewMeetingRecordingMapper creates a new MeetingRecordingMapper.
func NewMeetingRecordingMapper() MeetingRecordingMapper {
	return &MeetingRecordingMapperImpl{}
}

func (m *MeetingRecordingMapperImpl) ToModel(entity *meeting.Recording) *models.MeetingRecordingModel {
	if entity == nil {
		return nil
	}
	return &models.MeetingRecordingModel{
		ID:               entity.ID,
		MeetingID:        entity.MeetingID,
		StoragePath:      entity.StoragePath,
		StorageBucket:    entity.StorageBucket,
		MimeType:         entity.MimeType,
		FileSizeBytes:    entity.FileSizeBytes,
		DurationSeconds:  entity.DurationSeconds,
		ProcessingStatus: string(entity.ProcessingStatus),
		SourcePlatform:   string(entity.SourcePlatform),
		PlatformRecordID: entity.PlatformRecordID,
		CreatedAt:        entity.CreatedAt,
		UpdatedAt:        entity.UpdatedAt,
	}
}

func (m *MeetingRecordingMapperImpl) ToDomain(model *models.MeetingRecordingModel) *meeting.Recording {
	if model == nil {
		return nil
	}
	return &meeting.Recording{
		ID:               model.ID,
		MeetingID:        model.MeetingID,
		StoragePath:      model.StoragePath,
		StorageBucket:    model.StorageBucket,
		MimeType:         model.MimeType,
		FileSizeBytes:    model.FileSizeBytes,
		DurationSeconds:  model.DurationSeconds,
		ProcessingStatus: meeting.ProcessingStatus(model.ProcessingStatus),
		SourcePlatform:   platform.Platform(model.SourcePlatform),
		PlatformRecordID: model.PlatformRecordID,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}
