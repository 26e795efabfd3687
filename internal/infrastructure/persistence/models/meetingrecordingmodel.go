package models

import "time"

// MeetingRecordingModel represents the database persistence model for
// stored recording artifacts.
type MeetingRecordingModel struct {
	ID        uint `gorm:"primarykey"`
	MeetingID uint `gorm:"not null;uniqueIndex"`

	StoragePath   string `gorm:"not null;size:1000"`
	StorageBucket string `gorm:"size:255"`
	MimeType      string `gorm:"size:100"`
	FileSizeBytes int64

	DurationSeconds int

	ProcessingStatus string `gorm:"not null;size:20;default:'pending';index"`

	SourcePlatform   string `gorm:"size:20"`
	PlatformRecordID string `gorm:"size:255"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (MeetingRecordingModel) TableName() string {
	return "meeting_recordings"
}
