package models

import "time"

// MeetingRecordModel represents the database persistence model for synced
// provider meetings and their recording pipeline state.
type MeetingRecordModel struct {
	ID           uint  `gorm:"primarykey"`
	ConnectionID uint  `gorm:"not null;uniqueIndex:idx_connection_platform_meeting"`
	MeetingID    *uint `gorm:"index"`

	PlatformMeetingID   string `gorm:"not null;size:255;uniqueIndex:idx_connection_platform_meeting"`
	PlatformRecordingID string `gorm:"size:255"`

	Title     string `gorm:"size:500"`
	HostEmail string `gorm:"size:255"`

	StartTime       *time.Time `gorm:"index"`
	EndTime         *time.Time
	DurationSeconds int

	Participants     string `gorm:"type:text"`
	ParticipantCount int
	JoinURL          string `gorm:"size:1000"`

	Status string `gorm:"not null;size:20;default:'pending';index"`

	RecordingURL      string `gorm:"size:1000"`
	RecordingPassword string `gorm:"size:255"`
	FileType          string `gorm:"size:20"`
	FileSizeBytes     int64

	StoragePath   string `gorm:"size:1000"`
	StorageBucket string `gorm:"size:255"`

	ErrorMessage string `gorm:"type:text"`

	RawMeetingData   string `gorm:"type:text"`
	RawRecordingData string `gorm:"type:text"`

	FetchedAt    *time.Time
	DownloadedAt *time.Time
	ProcessedAt  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (MeetingRecordModel) TableName() string {
	return "meeting_records"
}
