package config

import (
	"fmt"

	"github.com/bellapacxx/bingo-hall/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the card and game record tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Card{},
		&models.GameRecord{},
	); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
