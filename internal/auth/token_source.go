package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrAuthRequired is returned when no valid credential can be obtained:
// the exchange was rejected or the refresh budget is exhausted.
var ErrAuthRequired = errors.New("auth: no valid credential available")

// refreshMargin is how long before expiry a cached token is considered
// stale.
const refreshMargin = time.Minute

var (
	errMissingTokenURL = errors.New("auth: token url must be provided")
	errMissingDeviceID = errors.New("auth: device id must be provided")
	errMissingSecret   = errors.New("auth: master secret must be provided")
)

// TokenSource supplies bearer tokens for the sync transport.
type TokenSource interface {
	// Token returns a credential believed to be valid.
	Token(ctx context.Context) (string, error)
	// Invalidate discards any cached credential after a rejection.
	Invalidate()
}

// StaticTokenSource wraps a fixed token. Invalidate makes every later
// Token call fail with ErrAuthRequired, since a static credential cannot
// be refreshed.
type StaticTokenSource struct {
	mu      sync.Mutex
	token   string
	revoked bool
}

func NewStaticTokenSource(token string) *StaticTokenSource {
	return &StaticTokenSource{token: token}
}

func (s *StaticTokenSource) Token(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revoked || s.token == "" {
		return "", ErrAuthRequired
	}
	return s.token, nil
}

func (s *StaticTokenSource) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked = true
}

// ExchangeConfig configures a DeviceTokenSource.
type ExchangeConfig struct {
	TokenURL     string
	DeviceID     string
	MasterSecret string
	HTTPClient   *http.Client
	Clock        func() time.Time
}

// DeviceTokenSource exchanges the device id and master secret for a
// short-lived JWT, and refreshes it ahead of the expiry claim.
type DeviceTokenSource struct {
	config ExchangeConfig
	client *http.Client
	clock  func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

func NewDeviceTokenSource(cfg ExchangeConfig) (*DeviceTokenSource, error) {
	if cfg.TokenURL == "" {
		return nil, errMissingTokenURL
	}
	if cfg.DeviceID == "" {
		return nil, errMissingDeviceID
	}
	if cfg.MasterSecret == "" {
		return nil, errMissingSecret
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &DeviceTokenSource{config: cfg, client: client, clock: clock}, nil
}

type tokenRequest struct {
	DeviceID     string `json:"deviceId"`
	MasterSecret string `json:"masterSecret"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

func (s *DeviceTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" && s.clock().Before(s.expires.Add(-refreshMargin)) {
		return s.token, nil
	}
	return s.exchange(ctx)
}

func (s *DeviceTokenSource) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expires = time.Time{}
}

func (s *DeviceTokenSource) exchange(ctx context.Context) (string, error) {
	body, err := json.Marshal(tokenRequest{DeviceID: s.config.DeviceID, MasterSecret: s.config.MasterSecret})
	if err != nil {
		return "", err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.TokenURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := s.client.Do(request)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden {
		return "", fmt.Errorf("%w: token exchange rejected with status %d", ErrAuthRequired, response.StatusCode)
	}
	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange: unexpected status %d", response.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	var parsed tokenResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	if parsed.Token == "" {
		return "", fmt.Errorf("%w: token exchange returned no token", ErrAuthRequired)
	}

	s.token = parsed.Token
	s.expires = s.expiryOf(parsed)
	return s.token, nil
}

// expiryOf prefers the exp claim inside the token over the advertised
// expiresIn. The claim is read without verifying the signature; only the
// server validates tokens.
func (s *DeviceTokenSource) expiryOf(parsed tokenResponse) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(parsed.Token, claims); err == nil {
		if claims.ExpiresAt != nil {
			return claims.ExpiresAt.Time
		}
	}
	if parsed.ExpiresIn > 0 {
		return s.clock().Add(time.Duration(parsed.ExpiresIn) * time.Second)
	}
	return s.clock().Add(defaultTokenTTL)
}
