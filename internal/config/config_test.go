package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMemoryDriverDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("TICKET_SECRET", "")
	t.Setenv("OUTBOX_POLL_INTERVAL", "bogus")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	if cfg.StoreDriver != StoreDriverMemory {
		t.Fatalf("expected memory driver, got %s", cfg.StoreDriver)
	}
	if cfg.TicketSecret != "secret" {
		t.Fatalf("expected ticket secret to fall back to JWT secret, got %q", cfg.TicketSecret)
	}
	if cfg.Worker.PollInterval != 5*time.Second {
		t.Fatalf("expected default poll interval, got %s", cfg.Worker.PollInterval)
	}
}

func TestLoadRequiresDatabaseURLForPostgres(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")

	if _, err := Load(); err == nil {
		t.Fatalf("expected missing DATABASE_URL to fail")
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("RATE_UTR_SUBMIT_PER_MIN=3\nADMIN_USERNAME=ops\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ENV_FILE", path)
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("RATE_UTR_SUBMIT_PER_MIN", "")
	t.Setenv("ADMIN_USERNAME", "")
	os.Unsetenv("RATE_UTR_SUBMIT_PER_MIN")
	os.Unsetenv("ADMIN_USERNAME")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	if cfg.Limits.UTRSubmitPerMinute != 3 {
		t.Fatalf("expected limit from env file, got %d", cfg.Limits.UTRSubmitPerMinute)
	}
	if cfg.Admin.Username != "ops" {
		t.Fatalf("expected admin username from env file, got %q", cfg.Admin.Username)
	}
}
