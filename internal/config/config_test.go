package config

import (
	"testing"
	"time"
)

func validBase() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "chatbot", SSLMode: ""},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validBase()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.App.DebounceWindow != 3*time.Second {
		t.Fatalf("expected 3s debounce default, got %v", c.App.DebounceWindow)
	}
	if c.App.PropertiesPath != "data/properties.json" {
		t.Fatalf("expected properties path default, got %q", c.App.PropertiesPath)
	}
	if c.Notify.Mode != NotifyModeLevel {
		t.Fatalf("expected level notify default, got %q", c.Notify.Mode)
	}
	if c.Anthropic.MaxTokens != 1024 {
		t.Fatalf("expected max tokens default, got %d", c.Anthropic.MaxTokens)
	}
}

func TestValidate_ProductionRequiresSecrets(t *testing.T) {
	c := validBase()
	c.App.Env = "production"
	c.DB.SSLMode = "require"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without admin creds, verify token and API key")
	}
}

func TestValidate_RejectsBadNotifyMode(t *testing.T) {
	c := validBase()
	c.Notify.Mode = "sometimes"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for invalid NOTIFY_MODE")
	}
}
