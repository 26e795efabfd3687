package models

import "time"

// PlatformConnectionModel represents the database persistence model for
// meeting-platform connections.
type PlatformConnectionModel struct {
	ID     uint `gorm:"primarykey"`
	UserID uint `gorm:"not null;uniqueIndex:idx_user_platform"`

	Platform     string `gorm:"not null;size:20;uniqueIndex:idx_user_platform;index:idx_platform_account"`
	AccountEmail string `gorm:"size:255"`
	AccountName  string `gorm:"size:255"`
	AccountID    string `gorm:"size:255;index:idx_platform_account"`

	AccessTokenEncrypted  string     `gorm:"type:text"`
	RefreshTokenEncrypted string     `gorm:"type:text"`
	TokenExpiresAt        *time.Time `gorm:"index"`
	TokenScope            string     `gorm:"type:text"`

	WebhookSubscriptionID string `gorm:"size:255"`
	WebhookExpiresAt      *time.Time

	Status      string `gorm:"not null;size:20;default:'active';index"`
	LastError   string `gorm:"type:text"`
	LastErrorAt *time.Time

	AutoFetchRecordings bool `gorm:"default:true"`
	AutoTranscribe      bool `gorm:"default:false"`
	AutoSendSummary     bool `gorm:"default:false"`

	LastRecordingSyncAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM
func (PlatformConnectionModel) TableName() string {
	return "platform_connections"
}
