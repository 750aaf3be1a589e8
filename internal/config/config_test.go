package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.JWTIssuer != "pulsevote-auth" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "pulsevote-auth")
	}
	if cfg.JWTAudience != "pulsevote-api" {
		t.Errorf("JWTAudience = %q, want %q", cfg.JWTAudience, "pulsevote-api")
	}
	if cfg.JWTAccessTTL != "1h" {
		t.Errorf("JWTAccessTTL = %q, want %q", cfg.JWTAccessTTL, "1h")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.AllowReset {
		t.Error("AllowReset should default to false")
	}
	if cfg.AuthRateLimit != 10 {
		t.Errorf("AuthRateLimit = %d, want 10", cfg.AuthRateLimit)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("JWT_ISSUER", "custom-issuer")
	os.Setenv("BCRYPT_COST", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.JWTIssuer != "custom-issuer" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "custom-issuer")
	}
	if cfg.BcryptCost != 10 {
		t.Errorf("BcryptCost = %d, want 10", cfg.BcryptCost)
	}
}

func TestLoad_InvalidBcryptCost(t *testing.T) {
	os.Clearenv()
	os.Setenv("BCRYPT_COST", "50")

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail when BCRYPT_COST is out of range")
	}
}

func TestLoad_ResetForbiddenInProduction(t *testing.T) {
	os.Clearenv()
	os.Setenv("ALLOW_RESET", "true")
	os.Setenv("APP_ENV", "production")

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail when ALLOW_RESET=true in production")
	}
}

func TestAccessTTL(t *testing.T) {
	cfg := &Config{JWTAccessTTL: "30m"}
	if got := cfg.AccessTTL(); got != 30*time.Minute {
		t.Errorf("AccessTTL = %v, want 30m", got)
	}
	cfg = &Config{JWTAccessTTL: "bogus"}
	if got := cfg.AccessTTL(); got != time.Hour {
		t.Errorf("AccessTTL fallback = %v, want 1h", got)
	}
}

func TestAuthRateWindowDuration(t *testing.T) {
	cfg := &Config{AuthRateWindow: "2m"}
	if got := cfg.AuthRateWindowDuration(); got != 2*time.Minute {
		t.Errorf("AuthRateWindowDuration = %v, want 2m", got)
	}
	cfg = &Config{}
	if got := cfg.AuthRateWindowDuration(); got != time.Minute {
		t.Errorf("AuthRateWindowDuration fallback = %v, want 1m", got)
	}
}
