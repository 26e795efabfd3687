package migrations

import (
	"gorm.io/gorm"

	"github.com/annix-labs/fieldflow/internal/infrastructure/persistence/models"
)

func MigratePlatformTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.PlatformConnectionModel{},
		&models.MeetingRecordModel{},
	)
}

func MigrateMeetingTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.MeetingModel{},
		&models.MeetingRecordingModel{},
	)
}
