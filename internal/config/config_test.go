//go:build !integration

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

// unsetenv removes keys for the duration of the test.
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok {
			t.Cleanup(func() { os.Setenv(k, v) })
		}
		os.Unsetenv(k)
	}
}

func TestLoad_DefaultsAndEnvOverride(t *testing.T) {
	unsetenv(t, "DATABASE_URL", "JWT_SECRET", "HTTP_PORT")
	path := writeConfig(t, `
database:
  url: postgres://file/db
auth:
  jwt_secret: from-file
http:
  port: 9000
`)
	t.Setenv("HTTP_PORT", "9100")

	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Port != 9100 {
		t.Errorf("expected env to override port, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.URL != "postgres://file/db" {
		t.Errorf("unexpected database url %q", cfg.Database.URL)
	}
	if cfg.Auth.VerificationCode != "123456" {
		t.Errorf("expected default verification code, got %q", cfg.Auth.VerificationCode)
	}
	if cfg.Auth.AccessTTL != time.Hour || cfg.Auth.LoginAttempts != 5 {
		t.Errorf("unexpected auth defaults %+v", cfg.Auth)
	}
	if cfg.Import.BarcodeNamePrefix != "Campaign Barcode" {
		t.Errorf("unexpected import prefix %q", cfg.Import.BarcodeNamePrefix)
	}
	if !cfg.Runtime.Dev {
		t.Error("expected dev flag to be carried")
	}
}

func TestLoad_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.URL != "postgres://env/db" || cfg.Auth.JWTSecret != "s3cret" {
		t.Errorf("env values not applied: %+v", cfg)
	}
}

func TestLoad_Validation(t *testing.T) {
	unsetenv(t, "DATABASE_URL", "JWT_SECRET", "HTTP_PORT")
	path := writeConfig(t, "database:\n  url: postgres://x\n")

	if _, err := Load(path, false); err == nil {
		t.Fatal("expected error when jwt_secret is missing")
	}
}
