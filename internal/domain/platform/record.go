package platform

import (
	"time"

	"github.com/annix-labs/fieldflow/internal/shared/biztime"
)

// MeetingRecord is one provider meeting observed through a connection,
// together with the retrieval state of its recording. The pair
// (ConnectionID, PlatformMeetingID) is unique; re-syncs update in place.
type MeetingRecord struct {
	ID           uint
	ConnectionID uint

	// MeetingID links the record to a business Meeting once the
	// recording pipeline has matched or synthesized one.
	MeetingID *uint

	PlatformMeetingID   string
	PlatformRecordingID string

	Title     string
	HostEmail string

	StartTime       *time.Time
	EndTime         *time.Time
	DurationSeconds int

	Participants     string
	ParticipantCount int
	JoinURL          string

	Status RecordingStatus

	RecordingURL      string
	RecordingPassword string
	FileType          string
	FileSizeBytes     int64

	StoragePath   string
	StorageBucket string

	ErrorMessage string

	RawMeetingData   string
	RawRecordingData string

	FetchedAt    *time.Time
	DownloadedAt *time.Time
	ProcessedAt  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewMeetingRecord creates a record in pending state for a provider meeting.
func NewMeetingRecord(connectionID uint, platformMeetingID string) (*MeetingRecord, error) {
	if connectionID == 0 {
		return nil, ErrConnectionIDRequired
	}
	if platformMeetingID == "" {
		return nil, ErrPlatformMeetingIDRequired
	}

	now := biztime.NowUTC()
	return &MeetingRecord{
		ConnectionID:      connectionID,
		PlatformMeetingID: platformMeetingID,
		Status:            RecordingStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// TransitionTo moves the record through the pipeline, rejecting
// backward or skipping moves.
func (r *MeetingRecord) TransitionTo(next RecordingStatus) error {
	if !r.Status.CanTransitionTo(next) {
		return &InvalidTransitionError{From: r.Status, To: next}
	}
	r.Status = next
	r.UpdatedAt = biztime.NowUTC()
	return nil
}

// MarkDownloading claims the record for the retrieval pipeline.
func (r *MeetingRecord) MarkDownloading() error {
	return r.TransitionTo(RecordingStatusDownloading)
}

// MarkNoRecording records that the provider reported no media for the meeting.
func (r *MeetingRecord) MarkNoRecording() error {
	if err := r.TransitionTo(RecordingStatusNoRecording); err != nil {
		return err
	}
	now := biztime.NowUTC()
	r.FetchedAt = &now
	return nil
}

// MarkDownloaded records a successful media upload to blob storage.
func (r *MeetingRecord) MarkDownloaded(storagePath, storageBucket string) error {
	if err := r.TransitionTo(RecordingStatusDownloaded); err != nil {
		return err
	}
	now := biztime.NowUTC()
	r.StoragePath = storagePath
	r.StorageBucket = storageBucket
	r.DownloadedAt = &now
	r.ErrorMessage = ""
	return nil
}

// MarkProcessing records that the media was handed to downstream processing.
func (r *MeetingRecord) MarkProcessing() error {
	if err := r.TransitionTo(RecordingStatusProcessing); err != nil {
		return err
	}
	now := biztime.NowUTC()
	r.ProcessedAt = &now
	return nil
}

// MarkCompleted finishes the pipeline for this record.
func (r *MeetingRecord) MarkCompleted() error {
	return r.TransitionTo(RecordingStatusCompleted)
}

// MarkFailed records a pipeline failure with its cause.
func (r *MeetingRecord) MarkFailed(reason string) error {
	if err := r.TransitionTo(RecordingStatusFailed); err != nil {
		return err
	}
	r.ErrorMessage = reason
	return nil
}

// Rearm resets a failed or no_recording record for another attempt.
func (r *MeetingRecord) Rearm() error {
	if err := r.TransitionTo(RecordingStatusPending); err != nil {
		return err
	}
	r.ErrorMessage = ""
	return nil
}

// LinkMeeting attaches the record to a business Meeting.
func (r *MeetingRecord) LinkMeeting(meetingID uint) {
	r.MeetingID = &meetingID
	r.UpdatedAt = biztime.NowUTC()
}

// HasRecordingArtifact reports whether media was already landed in storage.
func (r *MeetingRecord) HasRecordingArtifact() bool {
	return r.StoragePath != ""
}
