// Package transport is the HTTP implementation of the sync engine's
// Transport collaborator. It owns credential refresh and the bounded
// retry around it; everything else propagates to the engine unchanged.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/MarcoPoloResearchLab/notesync/internal/auth"
	"github.com/MarcoPoloResearchLab/notesync/internal/node"
	"github.com/MarcoPoloResearchLab/notesync/internal/sync"
)

// authRetries is how many times a rejected credential is refreshed and
// retried before giving up with ErrAuthRequired.
const authRetries = 2

const maxResponseBytes = 32 << 20

var (
	errMissingBaseURL     = errors.New("transport: base url must be provided")
	errMissingTokenSource = errors.New("transport: token source must be provided")
)

// StatusError reports a non-auth HTTP failure.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("transport: server returned status %d: %s", e.StatusCode, e.Body)
}

// ClientConfig configures the HTTP transport.
type ClientConfig struct {
	BaseURL     string
	TokenSource auth.TokenSource
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

// Client posts change requests to {base}/changes.
type Client struct {
	log     *zap.Logger
	baseURL string
	source  auth.TokenSource
	client  *http.Client
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errMissingBaseURL
	}
	if cfg.TokenSource == nil {
		return nil, errMissingTokenSource
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		log:     logger,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		source:  cfg.TokenSource,
		client:  client,
	}, nil
}

// Changes performs one change exchange. A 401 response invalidates the
// cached credential and retries with a fresh one; after the retry budget
// is exhausted the call fails with ErrAuthRequired.
func (c *Client) Changes(ctx context.Context, request sync.ChangeRequest) (*sync.ChangeResponse, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("transport: encode request: %w", err)
	}

	for attempt := 0; ; attempt++ {
		response, err := c.post(ctx, body)
		if err == nil {
			return response, nil
		}
		if !errors.Is(err, errUnauthorized) {
			return nil, err
		}
		c.source.Invalidate()
		if attempt >= authRetries {
			return nil, fmt.Errorf("%w: credential rejected after %d refreshes", auth.ErrAuthRequired, authRetries)
		}
		c.log.Debug("credential rejected, refreshing", zap.Int("attempt", attempt+1))
	}
}

var errUnauthorized = errors.New("transport: credential rejected")

func (c *Client) post(ctx context.Context, body []byte) (*sync.ChangeResponse, error) {
	token, err := c.source.Token(ctx)
	if err != nil {
		return nil, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/changes", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+token)

	response, err := c.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("transport: read response: %w", err)
	}

	switch {
	case response.StatusCode == http.StatusUnauthorized:
		return nil, errUnauthorized
	case response.StatusCode != http.StatusOK:
		return nil, &StatusError{StatusCode: response.StatusCode, Body: strings.TrimSpace(string(payload))}
	}

	var parsed sync.ChangeResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, &node.ParseError{Entity: "change response", Raw: payload, Err: err}
	}
	return &parsed, nil
}
