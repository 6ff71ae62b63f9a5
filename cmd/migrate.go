package main

import (
	"github.com/bellapacxx/bingo-hall/config"
	"github.com/bellapacxx/bingo-hall/utils/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("[FATAL] %v", err)
	}
	if _, err := config.SetupDatabase(cfg.DatabaseURL); err != nil { // connects + migrates
		logger.Fatalf("[FATAL] %v", err)
	}
	logger.Infof("✅ Database migration completed successfully")
}
