package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultPort            = "4000"
	DefaultDrawInterval    = 6 * time.Second
	DefaultHouseCutPercent = 20
)

// Config is the process configuration, read from .env and the environment.
type Config struct {
	Port            string
	DatabaseURL     string
	RedisURL        string
	PatternsFile    string
	CardsFile       string
	CardsOwner      string
	LogLevel        string
	LogFile         string
	DrawInterval    time.Duration
	HouseCutPercent int
	LockFalseClaims bool
	CORSOrigins     []string
}

// Load reads .env when present, then the environment. DATABASE_URL is
// required.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:            DefaultPort,
		DatabaseURL:     strings.TrimSpace(getenv("DATABASE_URL")),
		RedisURL:        strings.TrimSpace(getenv("REDIS_URL")),
		PatternsFile:    strings.TrimSpace(getenv("PATTERNS_FILE")),
		CardsFile:       strings.TrimSpace(getenv("CARDS_FILE")),
		CardsOwner:      strings.TrimSpace(getenv("CARDS_OWNER")),
		LogLevel:        strings.TrimSpace(getenv("LOG_LEVEL")),
		LogFile:         strings.TrimSpace(getenv("LOG_FILE")),
		DrawInterval:    DefaultDrawInterval,
		HouseCutPercent: DefaultHouseCutPercent,
		CORSOrigins:     []string{"http://localhost:3000"},
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required in .env or environment")
	}
	if v := strings.TrimSpace(getenv("PORT")); v != "" {
		cfg.Port = v
	}
	if v := strings.TrimSpace(getenv("DRAW_INTERVAL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("invalid DRAW_INTERVAL %q", v)
		}
		cfg.DrawInterval = d
	}
	if v := strings.TrimSpace(getenv("HOUSE_CUT_PERCENT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 100 {
			return cfg, fmt.Errorf("invalid HOUSE_CUT_PERCENT %q", v)
		}
		cfg.HouseCutPercent = n
	}
	if v := strings.TrimSpace(getenv("LOCK_FALSE_CLAIMS")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid LOCK_FALSE_CLAIMS %q", v)
		}
		cfg.LockFalseClaims = b
	}
	if v := strings.TrimSpace(getenv("CORS_ORIGINS")); v != "" {
		cfg.CORSOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
			}
		}
	}
	return cfg, nil
}
