package models

import (
	"time"

	"gorm.io/datatypes"
)

// Card is the stored form of a bingo card. CardID is the number printed on
// the card and is unique per owner.
type Card struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	OwnerID   string         `gorm:"size:64;not null;uniqueIndex:idx_cards_owner_card" json:"owner_id"`
	CardID    string         `gorm:"size:64;not null;uniqueIndex:idx_cards_owner_card" json:"card_id"`
	Numbers   datatypes.JSON `gorm:"not null" json:"numbers"` // 25 numbers, row major, center 0
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
