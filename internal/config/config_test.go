package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Access.Threshold != 0.4 {
		t.Errorf("expected threshold 0.4, got %v", cfg.Access.Threshold)
	}
	if cfg.Access.RecognitionInterval != 2*time.Second {
		t.Errorf("expected recognition interval 2s, got %s", cfg.Access.RecognitionInterval)
	}
	if cfg.Access.CooldownPeriod != 10*time.Second {
		t.Errorf("expected cooldown 10s, got %s", cfg.Access.CooldownPeriod)
	}
	if cfg.Access.UnlockDuration != 10*time.Second {
		t.Errorf("expected unlock duration 10s, got %s", cfg.Access.UnlockDuration)
	}
	if cfg.Actuator.Baud != 9600 {
		t.Errorf("expected baud 9600, got %d", cfg.Actuator.Baud)
	}
	if cfg.Access.Scorer != "histogram" {
		t.Errorf("expected histogram scorer, got %q", cfg.Access.Scorer)
	}
	if cfg.Actuator.Token != "D" {
		t.Errorf("expected token 'D', got %q", cfg.Actuator.Token)
	}
	if cfg.Actuator.Port != "" {
		t.Errorf("expected no actuator port by default, got %q", cfg.Actuator.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected embedded defaults to validate, got %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MATCH_THRESHOLD", "0.55")
	t.Setenv("MATCH_SCORER", "dhash")
	t.Setenv("COOLDOWN_PERIOD", "30s")
	t.Setenv("UNLOCK_DURATION", "5s")
	t.Setenv("GALLERY_DIR", "/srv/faces")
	t.Setenv("ACTUATOR_PORT", "/dev/ttyACM0")
	t.Setenv("ACTUATOR_BAUD", "115200")
	t.Setenv("DATABASE_URL", "postgres://localhost/facegate")
	t.Setenv("WEB_PORT", "9090")
	t.Setenv("WEB_API_TOKEN", "driver-secret")
	t.Setenv("WEB_ALLOWED_ORIGINS", "https://door.example.com, ,https://ops.example.com")

	cfg := Load()

	if cfg.Access.Threshold != 0.55 {
		t.Errorf("expected threshold 0.55, got %v", cfg.Access.Threshold)
	}
	if cfg.Access.Scorer != "dhash" {
		t.Errorf("expected dhash scorer, got %q", cfg.Access.Scorer)
	}
	if cfg.Access.CooldownPeriod != 30*time.Second {
		t.Errorf("expected cooldown 30s, got %s", cfg.Access.CooldownPeriod)
	}
	if cfg.Access.UnlockDuration != 5*time.Second {
		t.Errorf("expected unlock 5s, got %s", cfg.Access.UnlockDuration)
	}
	if cfg.Gallery.Dir != "/srv/faces" {
		t.Errorf("expected gallery dir /srv/faces, got %s", cfg.Gallery.Dir)
	}
	if cfg.Actuator.Port != "/dev/ttyACM0" || cfg.Actuator.Baud != 115200 {
		t.Errorf("unexpected actuator config %+v", cfg.Actuator)
	}
	if cfg.Database.URL != "postgres://localhost/facegate" {
		t.Errorf("unexpected database URL %q", cfg.Database.URL)
	}
	if cfg.Web.Addr() != "0.0.0.0:9090" {
		t.Errorf("expected addr 0.0.0.0:9090, got %s", cfg.Web.Addr())
	}
	if len(cfg.Web.AllowedOrigins) != 2 || cfg.Web.AllowedOrigins[1] != "https://ops.example.com" {
		t.Errorf("unexpected allowed origins %v", cfg.Web.AllowedOrigins)
	}
	if cfg.Web.APIToken != "driver-secret" {
		t.Errorf("expected API token from env, got %q", cfg.Web.APIToken)
	}
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("MATCH_THRESHOLD", "high")
	t.Setenv("COOLDOWN_PERIOD", "ten seconds")
	t.Setenv("ACTUATOR_BAUD", "-5")

	cfg := Load()

	if cfg.Access.Threshold != 0.4 {
		t.Errorf("expected default threshold, got %v", cfg.Access.Threshold)
	}
	if cfg.Access.CooldownPeriod != 10*time.Second {
		t.Errorf("expected default cooldown, got %s", cfg.Access.CooldownPeriod)
	}
	if cfg.Actuator.Baud != 9600 {
		t.Errorf("expected default baud, got %d", cfg.Actuator.Baud)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"threshold too high", func(c *Config) { c.Access.Threshold = 1.5 }, "threshold"},
		{"threshold too low", func(c *Config) { c.Access.Threshold = -1.5 }, "threshold"},
		{"unknown scorer", func(c *Config) { c.Access.Scorer = "arcface" }, "scorer"},
		{"zero cooldown", func(c *Config) { c.Access.CooldownPeriod = 0 }, "cooldown"},
		{"zero unlock", func(c *Config) { c.Access.UnlockDuration = 0 }, "unlock"},
		{"negative interval", func(c *Config) { c.Access.RecognitionInterval = -time.Second }, "recognition"},
		{"missing gallery", func(c *Config) { c.Gallery.Dir = "" }, "gallery"},
		{"zero baud", func(c *Config) { c.Actuator.Baud = 0 }, "baud"},
		{"multi-byte token", func(c *Config) { c.Actuator.Token = "DD" }, "token"},
		{"zero timeout", func(c *Config) { c.Actuator.Timeout = 0 }, "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}
