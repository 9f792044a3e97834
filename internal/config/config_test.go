package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://x")
	t.Setenv("EMAIL_PROVIDER", "")
	t.Setenv("ADMIN_IDS", "1, 2;3")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Email.Provider != "console" {
		t.Fatalf("provider = %q", cfg.Email.Provider)
	}
	if cfg.PhoneCountryCode != "55" {
		t.Fatalf("country code = %q", cfg.PhoneCountryCode)
	}
	if cfg.DispatchTimeout != 15*time.Second {
		t.Fatalf("dispatch timeout = %v", cfg.DispatchTimeout)
	}
	if len(cfg.AdminIDs) != 3 || cfg.AdminIDs[2] != 3 {
		t.Fatalf("admin ids = %v", cfg.AdminIDs)
	}
	if cfg.ResetMessaging != "new" {
		t.Fatalf("reset messaging = %q", cfg.ResetMessaging)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing_database_url", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		if _, err := Load(); err == nil {
			t.Fatal("ожидали ошибку без DATABASE_URL")
		}
	})
	t.Run("sendgrid_without_key", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://x")
		t.Setenv("EMAIL_PROVIDER", "sendgrid")
		t.Setenv("SENDGRID_API_KEY", "")
		if _, err := Load(); err == nil {
			t.Fatal("ожидали ошибку конфигурации sendgrid")
		}
	})
	t.Run("bad_admin_ids", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://x")
		t.Setenv("ADMIN_IDS", "12,abc")
		if _, err := Load(); err == nil {
			t.Fatal("ожидали ошибку парсинга ADMIN_IDS")
		}
	})
	t.Run("bad_reset_messaging", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://x")
		t.Setenv("RESET_MESSAGING", "maybe")
		if _, err := Load(); err == nil {
			t.Fatal("ожидали ошибку RESET_MESSAGING")
		}
	})
}
