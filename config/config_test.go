package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"DB_DRIVER", "DATABASE_URL", "DATA_DIR", "LLM_URL", "LLM_TIMEOUT", "SEED_EMPLOYEES", "IMPORT_DIR", "DB_HOST"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.DBDriver != "sqlite" {
		t.Errorf("DBDriver = %q, want sqlite", cfg.DBDriver)
	}
	if want := filepath.Join("data", "inventory.db"); cfg.DatabaseURL != want {
		t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, want)
	}
	if cfg.LLM.Timeout != 30*time.Second || cfg.LLM.ProbeTimeout != 2*time.Second {
		t.Errorf("timeouts = %v/%v", cfg.LLM.ProbeTimeout, cfg.LLM.Timeout)
	}
	if cfg.LLM.Temperature != 0.1 {
		t.Errorf("Temperature = %v, want 0.1", cfg.LLM.Temperature)
	}
	if !cfg.SeedEmployees {
		t.Error("SeedEmployees should default to true")
	}
	if cfg.Import.Dir != filepath.Join("data", "imports") {
		t.Errorf("Import.Dir = %q", cfg.Import.Dir)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "u")
	t.Setenv("DB_PASSWORD", "p")
	t.Setenv("DB_NAME", "inv")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("LLM_URL", "http://llm:1234/")
	t.Setenv("LLM_TIMEOUT", "45")
	t.Setenv("SEED_EMPLOYEES", "false")

	cfg := Load()
	if cfg.DBDriver != "postgres" {
		t.Errorf("DBDriver = %q", cfg.DBDriver)
	}
	want := "host=db user=u password=p dbname=inv port=5432 sslmode=disable"
	if cfg.DatabaseURL != want {
		t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, want)
	}
	if cfg.LLM.URL != "http://llm:1234" {
		t.Errorf("LLM.URL = %q", cfg.LLM.URL)
	}
	if cfg.LLM.Timeout != 45*time.Second {
		t.Errorf("LLM.Timeout = %v", cfg.LLM.Timeout)
	}
	if cfg.SeedEmployees {
		t.Error("SeedEmployees should be false")
	}
}
