package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix           = "NOTESYNC"
	defaultHTTPAddress  = "0.0.0.0:8080"
	defaultServerURL    = "http://localhost:8080"
	defaultSnapshotPath = "notesync.db"
	defaultLogLevel     = "info"
	defaultTokenTTLMin  = 30
)

// AppConfig captures runtime configuration for both the sync client and
// the note server.
type AppConfig struct {
	ServerURL    string
	TokenURL     string
	MasterSecret string
	DeviceID     string
	SnapshotPath string

	HTTPAddress   string
	SigningSecret string
	TokenTTL      time.Duration

	LogLevel string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("server.url", defaultServerURL)
	configViper.SetDefault("snapshot.path", defaultSnapshotPath)
	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("token.ttl_minutes", defaultTokenTTLMin)
	configViper.SetDefault("log.level", defaultLogLevel)
}

// Load parses runtime configuration from viper. Command-specific
// requirements are checked by ValidateClient and ValidateServer.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		ServerURL:     strings.TrimRight(configViper.GetString("server.url"), "/"),
		TokenURL:      configViper.GetString("auth.token_url"),
		MasterSecret:  configViper.GetString("auth.master_secret"),
		DeviceID:      configViper.GetString("device.id"),
		SnapshotPath:  configViper.GetString("snapshot.path"),
		HTTPAddress:   configViper.GetString("http.address"),
		SigningSecret: configViper.GetString("auth.signing_secret"),
		TokenTTL:      time.Duration(configViper.GetInt("token.ttl_minutes")) * time.Minute,
		LogLevel:      configViper.GetString("log.level"),
	}

	if cfg.TokenURL == "" && cfg.ServerURL != "" {
		cfg.TokenURL = cfg.ServerURL + "/auth/token"
	}

	return cfg, nil
}

// ValidateClient checks the fields the sync command depends on.
func (c AppConfig) ValidateClient() error {
	if strings.TrimSpace(c.ServerURL) == "" {
		return fmt.Errorf("server.url is required")
	}
	if strings.TrimSpace(c.MasterSecret) == "" {
		return fmt.Errorf("auth.master_secret is required")
	}
	if strings.TrimSpace(c.DeviceID) == "" {
		return fmt.Errorf("device.id is required")
	}
	if strings.TrimSpace(c.SnapshotPath) == "" {
		return fmt.Errorf("snapshot.path is required")
	}
	return nil
}

// ValidateServer checks the fields the serve command depends on.
func (c AppConfig) ValidateServer() error {
	if strings.TrimSpace(c.HTTPAddress) == "" {
		return fmt.Errorf("http.address is required")
	}
	if strings.TrimSpace(c.MasterSecret) == "" {
		return fmt.Errorf("auth.master_secret is required")
	}
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("auth.signing_secret is required")
	}
	return nil
}
