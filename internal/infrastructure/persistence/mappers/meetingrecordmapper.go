package mappers

import (
	"github.com/annix-labs/fieldflow/internal/domain/platform"
	"github.com/annix-labs/fieldflow/internal/infrastructure/persistence/models"
	"github.com/annix-labs/fieldflow/internal/shared/mapper"
)

// MeetingRecordMapper handles the conversion between domain entities and
// persistence models.
type MeetingRecordMapper interface {
	ToModel(entity *platform.MeetingRecord) *models.MeetingRecordModel
	ToDomain(model *models.MeetingRecordModel) *platform.MeetingRecord
	ToDomainList(models []*models.MeetingRecordModel) []*platform.MeetingRecord
}

// MeetingRecordMapperImpl is the concrete implementation of MeetingRecordMapper.
type MeetingRecordMapperImpl struct{}

// NewMeetingRecordMapper creates a new MeetingRecordMapper.
func NewMeetingRecordMapper() MeetingRecordMapper {
	return &MeetingRecordMapperImpl{}
}

func (m *MeetingRecordMapperImpl) ToModel(entity *platform.MeetingRecord) *models.MeetingRecordModel {
	if entity == nil {
		return nil
	}
	return &models.MeetingRecordModel{
		ID:                  entity.ID,
		ConnectionID:        entity.ConnectionID,
		MeetingID:           entity.MeetingID,
		PlatformMeetingID:   entity.PlatformMeetingID,
		PlatformRecordingID: entity.PlatformRecordingID,
		Title:               entity.Title,
		HostEmail:           entity.HostEmail,
		StartTime:           entity.StartTime,
		EndTime:             entity.EndTime,
		DurationSeconds:     entity.DurationSeconds,
		Participants:        entity.Participants,
		ParticipantCount:    entity.ParticipantCount,
		JoinURL:             entity.JoinURL,
		Status:              string(entity.Status),
		RecordingURL:        entity.RecordingURL,
		RecordingPassword:   entity.RecordingPassword,
		FileType:            entity.FileType,
		FileSizeBytes:       entity.FileSizeBytes,
		StoragePath:         entity.StoragePath,
		StorageBucket:       entity.StorageBucket,
		ErrorMessage:        entity.ErrorMessage,
		RawMeetingData:      entity.RawMeetingData,
		RawRecordingData:    entity.RawRecordingData,
		FetchedAt:           entity.FetchedAt,
		DownloadedAt:        entity.DownloadedAt,
		ProcessedAt:         entity.ProcessedAt,
		CreatedAt:           entity.CreatedAt,
		UpdatedAt:           entity.UpdatedAt,
	}
}

func (m *MeetingRecordMapperImpl) ToDomain(model *models.MeetingRecordModel) *platform.MeetingRecord {
	if model == nil {
		return nil
	}
	return &platform.MeetingRecord{
		ID:                  model.ID,
		ConnectionID:        model.ConnectionID,
		MeetingID:           model.MeetingID,
		PlatformMeetingID:   model.PlatformMeetingID,
		PlatformRecordingID: model.PlatformRecordingID,
		Title:               model.Title,
		HostEmail:           model.HostEmail,
		StartTime:           model.StartTime,
		EndTime:             model.EndTime,
		DurationSeconds:     model.DurationSeconds,
		Participants:        model.Participants,
		ParticipantCount:    model.ParticipantCount,
		JoinURL:             model.JoinURL,
		Status:              platform.RecordingStatus(model.Status),
		RecordingURL:        model.RecordingURL,
		RecordingPassword:   model.RecordingPassword,
		FileType:            model.FileType,
		FileSizeBytes:       model.FileSizeBytes,
		StoragePath:         model.StoragePath,
		StorageBucket:       model.StorageBucket,
		ErrorMessage:        model.ErrorMessage,
		RawMeetingData:      model.RawMeetingData,
		RawRecordingData:    model.RawRecordingData,
		FetchedAt:           model.FetchedAt,
		DownloadedAt:        model.DownloadedAt,
		ProcessedAt:         model.ProcessedAt,
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           model.UpdatedAt,
	}
}

func (m *MeetingRecordMapperImpl) ToDomainList(items []*models.MeetingRecordModel) []*platform.MeetingRecord {
	return mapper.MapSlicePtr(items, m.ToDomain)
}
