package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/bellapacxx/bingo-hall/config"
	"github.com/bellapacxx/bingo-hall/game"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:services_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := config.Migrate(db); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return db
}

// rowGrid returns a card whose first row is 1, 16, 31, 46, 61 and whose
// other cells follow the same column-minimum-plus-row layout.
func rowGrid() game.Grid {
	var g game.Grid
	for row := 0; row < game.GridSize; row++ {
		for col := 0; col < game.GridSize; col++ {
			lo, _ := game.ColumnRange(col)
			g[row][col] = lo + row
		}
	}
	g[2][2] = game.FreeValue
	return g
}
