package server

import (
	"bytes"
	contextpkg "context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/MarcoPoloResearchLab/notesync/internal/node"
	"github.com/MarcoPoloResearchLab/notesync/internal/sync"
)

type stubTokenManager struct {
	issued      string
	issueErr    error
	validateErr error
}

func (s stubTokenManager) IssueDeviceToken(_ contextpkg.Context, deviceID string) (string, int64, error) {
	if s.issueErr != nil {
		return "", 0, s.issueErr
	}
	return s.issued + ":" + deviceID, 1800, nil
}

func (s stubTokenManager) ValidateToken(token string) (string, error) {
	if s.validateErr != nil {
		return "", s.validateErr
	}
	return "device-1", nil
}

func newTestServer(t *testing.T, tokens TokenManager) (*httptest.Server, *Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := NewStore(StoreConfig{})
	handler, err := NewHTTPHandler(Dependencies{
		TokenManager: tokens,
		Store:        store,
		MasterSecret: "master-secret",
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, store
}

func postJSON(t *testing.T, url, bearer string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	request, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		request.Header.Set("Authorization", "Bearer "+bearer)
	}
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		t.Fatalf("perform request: %v", err)
	}
	t.Cleanup(func() { _ = response.Body.Close() })
	return response
}

func TestTokenExchangeIssuesDeviceToken(t *testing.T) {
	server, _ := newTestServer(t, stubTokenManager{issued: "jwt"})

	response := postJSON(t, server.URL+"/auth/token", "", tokenRequestPayload{
		DeviceID:     "device-1",
		MasterSecret: "master-secret",
	})
	if response.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: got %d, want %d", response.StatusCode, http.StatusOK)
	}

	var payload tokenResponsePayload
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		t.Fatalf("decode token response: %v", err)
	}
	if payload.Token != "jwt:device-1" {
		t.Fatalf("unexpected token: %q", payload.Token)
	}
	if payload.ExpiresIn != 1800 {
		t.Fatalf("unexpected expiry: %d", payload.ExpiresIn)
	}
}

func TestTokenExchangeRejectsWrongMasterSecret(t *testing.T) {
	server, _ := newTestServer(t, stubTokenManager{issued: "jwt"})

	response := postJSON(t, server.URL+"/auth/token", "", tokenRequestPayload{
		DeviceID:     "device-1",
		MasterSecret: "wrong",
	})
	if response.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected status code: got %d, want %d", response.StatusCode, http.StatusUnauthorized)
	}
}

func TestTokenExchangeRejectsMissingDeviceID(t *testing.T) {
	server, _ := newTestServer(t, stubTokenManager{issued: "jwt"})

	response := postJSON(t, server.URL+"/auth/token", "", tokenRequestPayload{
		MasterSecret: "master-secret",
	})
	if response.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status code: got %d, want %d", response.StatusCode, http.StatusBadRequest)
	}
}

func TestChangesRequiresBearerToken(t *testing.T) {
	server, _ := newTestServer(t, stubTokenManager{issued: "jwt"})

	response := postJSON(t, server.URL+"/changes", "", sync.ChangeRequest{})
	if response.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected status code: got %d, want %d", response.StatusCode, http.StatusUnauthorized)
	}
}

func TestChangesRejectsInvalidToken(t *testing.T) {
	server, _ := newTestServer(t, stubTokenManager{validateErr: errors.New("signature mismatch")})

	response := postJSON(t, server.URL+"/changes", "bad-token", sync.ChangeRequest{})
	if response.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected status code: got %d, want %d", response.StatusCode, http.StatusUnauthorized)
	}
}

func TestChangesExchangesAgainstStore(t *testing.T) {
	server, store := newTestServer(t, stubTokenManager{issued: "jwt"})

	parent := node.RootID
	request := sync.ChangeRequest{
		Nodes: []node.Delta{{ID: "n-1", Type: string(node.KindNote), ParentID: &parent}},
	}
	response := postJSON(t, server.URL+"/changes", "jwt:device-1", request)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status code: got %d, want %d", response.StatusCode, http.StatusOK)
	}

	var decoded sync.ChangeResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode change response: %v", err)
	}
	if len(decoded.Nodes) != 1 || decoded.Nodes[0].ServerID != "s:1" {
		t.Fatalf("expected echoed node with server id, got %+v", decoded.Nodes)
	}
	if decoded.ToVersion != "1" {
		t.Fatalf("unexpected version token: %q", decoded.ToVersion)
	}

	direct := store.Exchange(sync.ChangeRequest{})
	if len(direct.Nodes) != 1 {
		t.Fatalf("expected store to hold the pushed node")
	}
}
