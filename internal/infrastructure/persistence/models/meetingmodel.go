package models

import "time"

// MeetingModel represents the database persistence model for business meetings.
type MeetingModel struct {
	ID         uint `gorm:"primarykey"`
	SalesRepID uint `gorm:"not null;index"`

	Title        string `gorm:"not null;size:500"`
	CustomerName string `gorm:"size:255"`
	Status       string `gorm:"not null;size:20;default:'scheduled';index"`

	ScheduledStart *time.Time `gorm:"index"`
	ScheduledEnd   *time.Time

	JoinURL  string `gorm:"size:500;index:idx_meeting_join_url"`
	Platform string `gorm:"size:20"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (MeetingModel) TableName() string {
	return "meetings"
}
