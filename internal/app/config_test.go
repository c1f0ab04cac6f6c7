package app

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("expected default addr :8080, got %s", cfg.HTTPAddr)
	}
	if cfg.PGURL != "" {
		t.Fatalf("expected SQLite by default, got PG_URL %q", cfg.PGURL)
	}
	if cfg.SQLitePath == "" {
		t.Fatal("expected a default sqlite path")
	}
	if cfg.RoomIdleTTL != 30*time.Minute {
		t.Fatalf("expected 30m idle TTL, got %v", cfg.RoomIdleTTL)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("ROOM_IDLE_TTL", "5m")
	t.Setenv("CORS_ALLOW", "https://a.example, https://b.example,")

	cfg := LoadConfig()
	if cfg.HTTPAddr != ":9999" {
		t.Fatalf("override ignored: %s", cfg.HTTPAddr)
	}
	if cfg.RoomIdleTTL != 5*time.Minute {
		t.Fatalf("ttl override ignored: %v", cfg.RoomIdleTTL)
	}
	if len(cfg.CORSAllow) != 2 || cfg.CORSAllow[1] != "https://b.example" {
		t.Fatalf("CSV parsing wrong: %v", cfg.CORSAllow)
	}
}

func TestGetEnvDurationRejectsGarbage(t *testing.T) {
	t.Setenv("ROOM_IDLE_TTL", "soon")
	cfg := LoadConfig()
	if cfg.RoomIdleTTL != 30*time.Minute {
		t.Fatalf("garbage duration accepted: %v", cfg.RoomIdleTTL)
	}
}
