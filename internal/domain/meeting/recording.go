package meeting

import (
	"context"
	"errors"
	"time"

	"github.com/annix-labs/fieldflow/internal/domain/platform"
	"github.com/annix-labs/fieldflow/internal/shared/biztime"
)

// ProcessingStatus is the downstream state of a recording artifact.
type ProcessingStatus string

const (
	ProcessingPending    ProcessingStatus = "pending"
	ProcessingInProgress ProcessingStatus = "in_progress"
	ProcessingCompleted  ProcessingStatus = "completed"
	ProcessingFailed     ProcessingStatus = "failed"
)

var ErrMeetingIDRequired = errors.New("meeting ID is required")

// Recording is the stored media artifact for a meeting. A meeting has at
// most one recording; replays of the pipeline reuse the existing row.
type Recording struct {
	ID        uint
	MeetingID uint

	StoragePath   string
	StorageBucket string
	MimeType      string
	FileSizeBytes int64

	DurationSeconds int

	ProcessingStatus ProcessingStatus

	SourcePlatform   platform.Platform
	PlatformRecordID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewRecording creates a pending recording artifact for a meeting.
func NewRecording(meetingID uint, storagePath, storageBucket string, sourcePlatform platform.Platform) (*Recording, error) {
	if meetingID == 0 {
		return nil, ErrMeetingIDRequired
	}

	now := biztime.NowUTC()
	return &Recording{
		MeetingID:        meetingID,
		StoragePath:      storagePath,
		StorageBucket:    storageBucket,
		ProcessingStatus: ProcessingPending,
		SourcePlatform:   sourcePlatform,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// RecordingRepository defines persistence for recording artifacts.
// Lookups that find nothing return (nil, nil).
type RecordingRepository interface {
	// Create creates a new recording artifact
	Create(ctx context.Context, rec *Recording) error

	// GetByMeetingID retrieves the artifact attached to a meeting
	GetByMeetingID(ctx context.Context, meetingID uint) (*Recording, error)

	// Update updates an existing artifact
	Update(ctx context.Context, rec *Recording) error
}
