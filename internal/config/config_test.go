package config

import (
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(NewViper())
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if cfg.ServerURL != "http://localhost:8080" {
		t.Fatalf("unexpected server url: %q", cfg.ServerURL)
	}
	if cfg.TokenURL != "http://localhost:8080/auth/token" {
		t.Fatalf("expected token url derived from server url, got %q", cfg.TokenURL)
	}
	if cfg.SnapshotPath != "notesync.db" {
		t.Fatalf("unexpected snapshot path: %q", cfg.SnapshotPath)
	}
	if cfg.HTTPAddress != "0.0.0.0:8080" {
		t.Fatalf("unexpected http address: %q", cfg.HTTPAddress)
	}
	if cfg.TokenTTL != 30*time.Minute {
		t.Fatalf("unexpected token ttl: %s", cfg.TokenTTL)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("unexpected log level: %q", cfg.LogLevel)
	}
}

func TestLoadTrimsTrailingSlashAndKeepsExplicitTokenURL(t *testing.T) {
	configViper := NewViper()
	configViper.Set("server.url", "https://notes.example.com/")
	configViper.Set("auth.token_url", "https://auth.example.com/token")

	cfg, err := Load(configViper)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if cfg.ServerURL != "https://notes.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.ServerURL)
	}
	if cfg.TokenURL != "https://auth.example.com/token" {
		t.Fatalf("expected explicit token url preserved, got %q", cfg.TokenURL)
	}
}

func TestValidateClientRequirements(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{name: "missing server url", mutate: func(c *AppConfig) { c.ServerURL = "" }},
		{name: "missing master secret", mutate: func(c *AppConfig) { c.MasterSecret = "" }},
		{name: "missing device id", mutate: func(c *AppConfig) { c.DeviceID = "" }},
		{name: "missing snapshot path", mutate: func(c *AppConfig) { c.SnapshotPath = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := AppConfig{
				ServerURL:    "http://localhost:8080",
				MasterSecret: "secret",
				DeviceID:     "device-1",
				SnapshotPath: "notesync.db",
			}
			tc.mutate(&cfg)
			if err := cfg.ValidateClient(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}

	valid := AppConfig{
		ServerURL:    "http://localhost:8080",
		MasterSecret: "secret",
		DeviceID:     "device-1",
		SnapshotPath: "notesync.db",
	}
	if err := valid.ValidateClient(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidateServerRequirements(t *testing.T) {
	valid := AppConfig{
		HTTPAddress:   "0.0.0.0:8080",
		MasterSecret:  "secret",
		SigningSecret: "signing",
	}
	if err := valid.ValidateServer(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	missingSigning := valid
	missingSigning.SigningSecret = ""
	if err := missingSigning.ValidateServer(); err == nil {
		t.Fatalf("expected validation error for missing signing secret")
	}

	missingSecret := valid
	missingSecret.MasterSecret = ""
	if err := missingSecret.ValidateServer(); err == nil {
		t.Fatalf("expected validation error for missing master secret")
	}
}
