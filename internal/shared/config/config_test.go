package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("PORT", "")
	t.Setenv("SENDGRID_FROM_EMAIL", "")
	t.Setenv("MAX_UPLOAD_BYTES", "")
	t.Setenv("CHAT_MEMORY_TTL", "")

	cfg := Load()
	if cfg.Env != "dev" {
		t.Fatalf("expected env dev, got %q", cfg.Env)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected port 8080, got %q", cfg.Port)
	}
	if cfg.SendGridFromEmail != defaultFromEmail {
		t.Fatalf("unexpected from email %q", cfg.SendGridFromEmail)
	}
	if cfg.MaxUploadBytes != defaultMaxUploadBytes {
		t.Fatalf("unexpected max upload %d", cfg.MaxUploadBytes)
	}
	if cfg.ChatMemoryTTL != 24*time.Hour {
		t.Fatalf("unexpected chat ttl %s", cfg.ChatMemoryTTL)
	}
}

func TestNormalizeEnv(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "prod", want: "production"},
		{in: " Production ", want: "production"},
		{in: "staging", want: "staging"},
		{in: "local", want: "local"},
		{in: "development", want: "dev"},
		{in: "whatever", want: "dev"},
	}
	for _, tt := range tests {
		if got := normalizeEnv(tt.in); got != tt.want {
			t.Fatalf("normalizeEnv(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("MAX_UPLOAD_BYTES", "abc")
	t.Setenv("CHAT_MEMORY_TTL", "-5m")
	cfg := Load()
	if cfg.MaxUploadBytes != defaultMaxUploadBytes {
		t.Fatalf("expected default upload size, got %d", cfg.MaxUploadBytes)
	}
	if cfg.ChatMemoryTTL != 24*time.Hour {
		t.Fatalf("expected default ttl, got %s", cfg.ChatMemoryTTL)
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(" http://a.test , ,http://b.test")
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", got)
	}
}
