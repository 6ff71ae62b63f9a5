package config

import (
	"fmt"
	"testing"
	"time"

	"github.com/bellapacxx/bingo-hall/models"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{"DATABASE_URL": "hall.db"}))
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Fatalf("expected port %s, got %s", DefaultPort, cfg.Port)
	}
	if cfg.DrawInterval != DefaultDrawInterval {
		t.Fatalf("expected draw interval %s, got %s", DefaultDrawInterval, cfg.DrawInterval)
	}
	if cfg.HouseCutPercent != DefaultHouseCutPercent {
		t.Fatalf("expected house cut %d, got %d", DefaultHouseCutPercent, cfg.HouseCutPercent)
	}
	if cfg.LockFalseClaims {
		t.Fatalf("lock false claims should default off")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"DATABASE_URL":      "postgres://hall@localhost/bingo",
		"PORT":              "8080",
		"DRAW_INTERVAL":     "3s",
		"HOUSE_CUT_PERCENT": "15",
		"LOCK_FALSE_CLAIMS": "true",
		"CORS_ORIGINS":      "https://a.example, https://b.example,",
	}))
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if cfg.Port != "8080" || cfg.DrawInterval != 3*time.Second || cfg.HouseCutPercent != 15 || !cfg.LockFalseClaims {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
}

func TestFromEnvErrors(t *testing.T) {
	cases := []map[string]string{
		{},
		{"DATABASE_URL": "x.db", "DRAW_INTERVAL": "soon"},
		{"DATABASE_URL": "x.db", "DRAW_INTERVAL": "-1s"},
		{"DATABASE_URL": "x.db", "HOUSE_CUT_PERCENT": "120"},
		{"DATABASE_URL": "x.db", "LOCK_FALSE_CLAIMS": "maybe"},
	}
	for i, env := range cases {
		if _, err := FromEnv(envMap(env)); err == nil {
			t.Errorf("case %d: expected error for %v", i, env)
		}
	}
}

func TestDetectDialect(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@localhost:5432/bingo":   DialectPostgres,
		"postgresql://localhost/bingo":          DialectPostgres,
		"host=localhost user=hall dbname=bingo": DialectPostgres,
		"hall.db":                               DialectSQLite,
		"file:hall?mode=memory&cache=shared":    DialectSQLite,
		"sqlite://hall.db":                      DialectSQLite,
	}
	for dsn, want := range cases {
		got, err := DetectDialect(dsn)
		if err != nil {
			t.Fatalf("%s: %v", dsn, err)
		}
		if got != want {
			t.Errorf("%s: got %s want %s", dsn, got, want)
		}
	}
	if _, err := DetectDialect("mysql://localhost/bingo"); err == nil {
		t.Fatalf("expected mysql to be rejected")
	}
}

func TestSetupDatabaseMigratesSQLite(t *testing.T) {
	dsn := fmt.Sprintf("file:config_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := SetupDatabase(dsn)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if !db.Migrator().HasTable(&models.Card{}) || !db.Migrator().HasTable(&models.GameRecord{}) {
		t.Fatalf("expected card and game record tables")
	}
	if !db.Migrator().HasIndex(&models.Card{}, "idx_cards_owner_card") {
		t.Fatalf("expected owner/card unique index")
	}
}
