package config

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/db")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ACCESS_TOKEN_TTL", "2m")
	t.Setenv("REFRESH_TOKEN_TTL", "3h")
	t.Setenv("ALLOWED_ORIGINS", `["https://app.example.com"]`)
	t.Setenv("ALLOW_CREDENTIALS", "true")
	t.Setenv("COOKIE_SAME_SITE", "strict")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.AccessTokenTTL != 2*time.Minute {
		t.Fatalf("AccessTokenTTL want 2m, got %v", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 3*time.Hour {
		t.Fatalf("RefreshTokenTTL want 3h, got %v", cfg.RefreshTokenTTL)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "https://app.example.com" {
		t.Fatalf("AllowedOrigins: %v", cfg.AllowedOrigins)
	}
	if !cfg.AllowCredentials {
		t.Fatal("AllowCredentials want true")
	}
	if cfg.CookieSameSite != http.SameSiteStrictMode {
		t.Fatalf("CookieSameSite: %v", cfg.CookieSameSite)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AccessTokenTTL != 30*time.Minute {
		t.Fatalf("AccessTokenTTL default: %v", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 24*time.Hour {
		t.Fatalf("RefreshTokenTTL default: %v", cfg.RefreshTokenTTL)
	}
	if cfg.ServerAddress != ":8080" {
		t.Fatalf("ServerAddress default: %q", cfg.ServerAddress)
	}
	if cfg.StoreTimeout != 5*time.Second {
		t.Fatalf("StoreTimeout default: %v", cfg.StoreTimeout)
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORE_DRIVER", "memory")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error due to missing JWT_SECRET, got nil")
	}
}

func TestLoad_DriverRequirements(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "")

	t.Setenv("STORE_DRIVER", "postgres")
	if _, err := Load(""); err == nil {
		t.Fatal("postgres without DATABASE_URL must fail")
	}

	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("REDIS_ADDRESS", "")
	if _, err := Load(""); err == nil {
		t.Fatal("redis without REDIS_ADDRESS must fail")
	}

	t.Setenv("STORE_DRIVER", "etcd")
	if _, err := Load(""); err == nil {
		t.Fatal("unknown driver must fail")
	}
}

func TestLoad_SameSiteNoneNeedsSecure(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("COOKIE_SAME_SITE", "none")
	t.Setenv("COOKIE_SECURE", "false")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for SameSite=None without Secure")
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auth.json")
	body := `{"JWT_SECRET":"from-file","STORE_DRIVER":"memory","ALLOWED_ORIGINS":"http://a.test, http://b.test"}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.JWTSecret != "from-file" {
		t.Fatalf("JWTSecret: %q", cfg.JWTSecret)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Fatalf("AllowedOrigins: %v", cfg.AllowedOrigins)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "memory")

	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("explicit config path that does not exist must fail")
	}
}

func TestLoad_TLSPair(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TLSEnabled() {
		t.Fatal("TLS must be off without cert and key")
	}

	t.Setenv("HTTPS_CERT_FILE", "cert.pem")
	if _, err := Load(""); err == nil {
		t.Fatal("cert without key must be rejected")
	}

	t.Setenv("HTTPS_KEY_FILE", "key.pem")
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.TLSEnabled() {
		t.Fatal("TLS must be on with cert and key")
	}
}
