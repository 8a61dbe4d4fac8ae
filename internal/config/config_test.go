package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/bookmate_test")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Timezone != "Asia/Kolkata" {
		t.Errorf("Timezone = %q, want Asia/Kolkata", cfg.Timezone)
	}
	if cfg.NotifyChannel != "db" {
		t.Errorf("NotifyChannel = %q, want db", cfg.NotifyChannel)
	}
	if cfg.NotifyInterval != 6*time.Hour {
		t.Errorf("NotifyInterval = %v, want 6h", cfg.NotifyInterval)
	}
	if cfg.Upload.Backend != "local" {
		t.Errorf("Upload.Backend = %q, want local", cfg.Upload.Backend)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/db")
	if _, err := Load(); err == nil {
		t.Error("expected error for missing JWT_SECRET")
	}

	t.Setenv("JWT_SECRET", "s")
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Error("expected error for missing DATABASE_URL")
	}
}

func TestLoad_Validation(t *testing.T) {
	setRequired(t)

	t.Setenv("NOTIFY_CHANNEL", "carrier-pigeon")
	if _, err := Load(); err == nil {
		t.Error("expected error for invalid NOTIFY_CHANNEL")
	}
	t.Setenv("NOTIFY_CHANNEL", "amqp")

	t.Setenv("TIMEZONE", "Neverland/Nowhere")
	if _, err := Load(); err == nil {
		t.Error("expected error for invalid TIMEZONE")
	}
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.NotifyChannel != "amqp" {
		t.Errorf("NotifyChannel = %q, want amqp", cfg.NotifyChannel)
	}
	if cfg.Location() != time.UTC {
		t.Errorf("Location() = %v, want UTC", cfg.Location())
	}
}

func TestLoad_OverridesAndDurations(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9999")
	t.Setenv("NOTIFY_INTERVAL", "4h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "9999" {
		t.Errorf("Port = %q, want 9999", cfg.Port)
	}
	if cfg.NotifyInterval != 4*time.Hour {
		t.Errorf("NotifyInterval = %v, want 4h", cfg.NotifyInterval)
	}
}
