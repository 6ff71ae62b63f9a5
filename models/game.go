package models

import (
	"time"

	"gorm.io/datatypes"
)

// GameRecord is a finished session as handed to reporting. Rows are written
// once and never updated.
type GameRecord struct {
	ID           uint           `gorm:"primaryKey" json:"-"`
	SessionID    string         `gorm:"size:64;uniqueIndex;not null" json:"id"`
	Round        int            `json:"round"`
	HouseID      string         `gorm:"size:64;index" json:"house_id"`
	AgentID      string         `gorm:"size:64;index" json:"agent_id"`
	CashierID    string         `gorm:"size:64;index" json:"cashier_id"`
	Stake        int64          `json:"stake"`
	PlayerCount  int            `json:"player_count"`
	WinAmount    int64          `json:"win_amount"`
	Pattern      string         `gorm:"size:64" json:"pattern"`
	WinnerCardID string         `gorm:"size:64" json:"winner_card_id"`
	CallCount    int            `json:"call_count"`
	NumbersJSON  datatypes.JSON `json:"calls"` // call history in draw order
	StartTime    time.Time      `gorm:"column:created_at;index" json:"created_at"`
	EndTime      time.Time      `gorm:"column:finished_at;index" json:"finished_at"`
}
