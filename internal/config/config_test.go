package config

import (
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("STORAGE_PROVIDER", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("port: got %q", cfg.Port)
	}
	if cfg.SessionTTL != 8*time.Hour {
		t.Fatalf("session ttl: got %v", cfg.SessionTTL)
	}
	if cfg.StorageProvider != "local" {
		t.Fatalf("storage provider: got %q", cfg.StorageProvider)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "http://localhost:5173" {
		t.Fatalf("cors origins: got %v", cfg.CORSAllowedOrigins)
	}
	if !strings.Contains(cfg.DSN(), "password=pw") {
		t.Fatalf("dsn missing password: %s", cfg.DSN())
	}
}

func TestLoadRequiresCredentials(t *testing.T) {
	tests := []struct {
		name     string
		secret   string
		password string
		wantErr  string
	}{
		{"missing secret", "", "pw", "JWT_SECRET"},
		{"short secret", "short", "pw", "JWT_SECRET"},
		{"missing db password", testSecret, "", "DB_PASSWORD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", tt.secret)
			t.Setenv("DB_PASSWORD", tt.password)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %s, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("STORAGE_PROVIDER", "GCS")
	t.Setenv("GCS_BUCKET", "photos")
	t.Setenv("PUBLIC_SITE_URL", "https://gioservice.example/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SessionTTL != 90*time.Minute {
		t.Fatalf("session ttl: got %v", cfg.SessionTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("cors origins: got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.StorageProvider != "gcs" {
		t.Fatalf("storage provider: got %q", cfg.StorageProvider)
	}
	if cfg.PublicSiteURL != "https://gioservice.example" {
		t.Fatalf("public site url: got %q", cfg.PublicSiteURL)
	}
}

func TestLoadRejectsGCSWithoutBucket(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("STORAGE_PROVIDER", "gcs")
	t.Setenv("GCS_BUCKET", "")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "GCS_BUCKET") {
		t.Fatalf("expected GCS_BUCKET error, got %v", err)
	}
}
