package dto

import (
	"time"

	"github.com/annix-labs/fieldflow/internal/domain/platform"
	"github.com/annix-labs/fieldflow/internal/shared/mapper"
)

// RecordDTO is the API view of a synced meeting record.
type RecordDTO struct {
	ID           uint  `json:"id"`
	ConnectionID uint  `json:"connection_id"`
	MeetingID    *uint `json:"meeting_id,omitempty"`

	PlatformMeetingID string `json:"platform_meeting_id"`
	Title             string `json:"title"`
	HostEmail         string `json:"host_email,omitempty"`

	StartTime        *time.Time `json:"start_time,omitempty"`
	EndTime          *time.Time `json:"end_time,omitempty"`
	DurationSeconds  int        `json:"duration_seconds"`
	ParticipantCount int        `json:"participant_count"`
	JoinURL          string     `json:"join_url,omitempty"`

	Status        string `json:"status"`
	FileType      string `json:"file_type,omitempty"`
	FileSizeBytes int64  `json:"file_size_bytes,omitempty"`
	StoragePath   string `json:"storage_path,omitempty"`
	ErrorMessage  string `json:"error_message,omitempty"`

	FetchedAt    *time.Time `json:"fetched_at,omitempty"`
	DownloadedAt *time.Time `json:"downloaded_at,omitempty"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// FromRecord maps a domain meeting record to its API view.
func FromRecord(rec *platform.MeetingRecord) *RecordDTO {
	if rec == nil {
		return nil
	}
	return &RecordDTO{
		ID:                rec.ID,
		ConnectionID:      rec.ConnectionID,
		MeetingID:         rec.MeetingID,
		PlatformMeetingID: rec.PlatformMeetingID,
		Title:             rec.Title,
		HostEmail:         rec.HostEmail,
		StartTime:         rec.StartTime,
		EndTime:           rec.EndTime,
		DurationSeconds:   rec.DurationSeconds,
		ParticipantCount:  rec.ParticipantCount,
		JoinURL:           rec.JoinURL,
		Status:            string(rec.Status),
		FileType:          rec.FileType,
		FileSizeBytes:     rec.FileSizeBytes,
		StoragePath:       rec.StoragePath,
		ErrorMessage:      rec.ErrorMessage,
		FetchedAt:         rec.FetchedAt,
		DownloadedAt:      rec.DownloadedAt,
		ProcessedAt:       rec.ProcessedAt,
		CreatedAt:         rec.CreatedAt,
	}
}

// FromRecordList maps a slice of domain records.
func FromRecordList(recs []*platform.MeetingRecord) []*RecordDTO {
	return mapper.MapSlicePtr(recs, FromRecord)
}

// SyncResultDTO summarizes one sync pass over a connection.
type SyncResultDTO struct {
	Synced     int `json:"synced"`
	Recordings int `json:"recordings"`
}

// ProcessResultDTO reports the outcome for one record in a pipeline batch.
type ProcessResultDTO struct {
	RecordID uint   `json:"record_id"`
	Success  bool   `json:"success"`
	Status   string `json:"status,omitempty"`
	Error    string `json:"error,omitempty"`
}
