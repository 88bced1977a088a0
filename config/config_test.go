package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFile_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("app: {}\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}

	if cfg.App.TTL != DefaultTTL {
		t.Fatalf("expected ttl %s, got %s", DefaultTTL, cfg.App.TTL)
	}
	if cfg.App.PurgeInterval != DefaultPurgeInterval {
		t.Fatalf("expected purge interval %s, got %s", DefaultPurgeInterval, cfg.App.PurgeInterval)
	}
	if cfg.App.DefaultLimit != DefaultClickLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultClickLimit, cfg.App.DefaultLimit)
	}
	if cfg.App.CodeLength != DefaultCodeLength {
		t.Fatalf("expected code length %d, got %d", DefaultCodeLength, cfg.App.CodeLength)
	}
	if !cfg.App.OpenBrowser {
		t.Fatal("expected browser auto-open by default")
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.Path != DefaultDatabasePath {
		t.Fatalf("unexpected database defaults: %+v", cfg.Database)
	}
	if cfg.App.IdentityFile == "" {
		t.Fatal("expected identity file to be resolved")
	}
}

func TestLoadFile_YAMLValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
app:
  ttl: 90m
  purge_interval: 5s
  default_limit: 3
  code_length: 10
  open_browser: false
database:
  driver: Postgres
  postgres:
    host: db
    port: 5433
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}

	if cfg.App.TTL != 90*time.Minute {
		t.Fatalf("expected ttl 90m, got %s", cfg.App.TTL)
	}
	if cfg.App.PurgeInterval != 5*time.Second {
		t.Fatalf("expected purge interval 5s, got %s", cfg.App.PurgeInterval)
	}
	if cfg.App.DefaultLimit != 3 || cfg.App.CodeLength != 10 || cfg.App.OpenBrowser {
		t.Fatalf("unexpected app config: %+v", cfg.App)
	}
	if cfg.Database.Driver != "postgres" {
		t.Fatalf("expected driver to be lower-cased, got %q", cfg.Database.Driver)
	}
	if cfg.Database.Postgres.Host != "db" || cfg.Database.Postgres.Port != 5433 {
		t.Fatalf("unexpected postgres config: %+v", cfg.Database.Postgres)
	}
}

func TestLoadFile_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("app:\n  default_limit: 3\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SHORTENER_DEFAULT_LIMIT", "9")
	t.Setenv("SHORTENER_TTL", "2h")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if cfg.App.DefaultLimit != 9 {
		t.Fatalf("expected env override 9, got %d", cfg.App.DefaultLimit)
	}
	if cfg.App.TTL != 2*time.Hour {
		t.Fatalf("expected env override 2h, got %s", cfg.App.TTL)
	}
}

func TestNormalize_FallsBackOnInvalidValues(t *testing.T) {
	cfg := Config{
		App: AppConfig{
			TTL:           -time.Minute,
			PurgeInterval: 0,
			DefaultLimit:  MaxClickLimit + 1,
			CodeLength:    2,
			IdentityFile:  "/tmp/id",
		},
	}
	cfg.Normalize()

	if cfg.App.TTL != DefaultTTL || cfg.App.PurgeInterval != DefaultPurgeInterval {
		t.Fatalf("expected duration defaults, got %+v", cfg.App)
	}
	if cfg.App.DefaultLimit != DefaultClickLimit || cfg.App.CodeLength != DefaultCodeLength {
		t.Fatalf("expected numeric defaults, got %+v", cfg.App)
	}
	if cfg.App.IdentityFile != "/tmp/id" {
		t.Fatalf("identity file should be preserved, got %q", cfg.App.IdentityFile)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("expected sqlite driver default, got %q", cfg.Database.Driver)
	}
}
