package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, expected %q", cfg.Database.Driver, "sqlite")
	}
	if cfg.JWT.ExpireHour != 24 {
		t.Errorf("JWT.ExpireHour = %d, expected 24", cfg.JWT.ExpireHour)
	}
	if cfg.JWT.CookieName != "token" {
		t.Errorf("JWT.CookieName = %q, expected %q", cfg.JWT.CookieName, "token")
	}
	if cfg.Redis.Enabled {
		t.Error("Redis should be disabled by default")
	}
	if !cfg.Reconciler.Enabled || cfg.Reconciler.Schedule == "" {
		t.Error("reconciler should be enabled with a schedule by default")
	}
}

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		addr     string
		password string
		db       int
	}{
		{"host only", "redis://localhost:6379", "localhost:6379", "", 0},
		{"with password", "redis://:secret@redis:6380", "redis:6380", "secret", 0},
		{"with user password and db", "redis://user:pw@10.0.0.1:6379/3", "10.0.0.1:6379", "pw", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.parseRedisURL(tt.url)
			if cfg.Redis.Addr != tt.addr {
				t.Errorf("Addr = %q, expected %q", cfg.Redis.Addr, tt.addr)
			}
			if cfg.Redis.Password != tt.password {
				t.Errorf("Password = %q, expected %q", cfg.Redis.Password, tt.password)
			}
			if cfg.Redis.DB != tt.db {
				t.Errorf("DB = %d, expected %d", cfg.Redis.DB, tt.db)
			}
		})
	}
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  port: \"9000\"\ndatabase:\n  driver: postgres\n  dsn: host=db\njwt:\n  secret: from-file\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("SMTP_HOST", "smtp.example.com")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != "9000" {
		t.Errorf("Server.Port = %q, expected %q", cfg.Server.Port, "9000")
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Database.Driver = %q, expected %q", cfg.Database.Driver, "postgres")
	}
	if cfg.JWT.Secret != "from-env" {
		t.Errorf("JWT.Secret = %q, expected env override", cfg.JWT.Secret)
	}
	// values absent from the file keep their defaults
	if cfg.JWT.ExpireHour != 24 {
		t.Errorf("JWT.ExpireHour = %d, expected default 24", cfg.JWT.ExpireHour)
	}
	if !cfg.SMTP.Enabled || cfg.SMTP.Host != "smtp.example.com" {
		t.Errorf("SMTP override not applied: %+v", cfg.SMTP)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, expected default", cfg.Server.Host)
	}
}

func TestSave_ThenLoad(t *testing.T) {
	t.Setenv("RECONCILER_SCHEDULE", "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Reconciler.Schedule = "@every 1h"
	cfg.Log.RetentionDays = 14
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Reconciler.Schedule != "@every 1h" || loaded.Log.RetentionDays != 14 {
		t.Errorf("loaded = %+v / %+v", loaded.Reconciler, loaded.Log)
	}
}
