// Package sync drives the push-pull loop that keeps the local node tree
// consistent with the server, and applies the server's deltas back onto
// the registries.
package sync

import (
	"context"

	"github.com/MarcoPoloResearchLab/notesync/internal/node"
)

// Transport performs one change exchange against the server. An
// implementation owns credential refresh and bounded retry; the engine
// treats every call as all-or-nothing.
type Transport interface {
	Changes(ctx context.Context, request ChangeRequest) (*ChangeResponse, error)
}

// ChangeRequest is one outgoing page of the exchange: the version the
// client has, the dirty nodes to push, and the label set when any label
// changed.
type ChangeRequest struct {
	TargetVersion   string        `json:"targetVersion,omitempty"`
	Nodes           []node.Delta  `json:"nodes"`
	ClientTimestamp string        `json:"clientTimestamp"`
	RequestHeader   RequestHeader `json:"requestHeader"`
	UserInfo        *UserInfo     `json:"userInfo,omitempty"`
}

// RequestHeader identifies the client session and its protocol
// capabilities.
type RequestHeader struct {
	ClientSessionID string       `json:"clientSessionId"`
	ClientPlatform  string       `json:"clientPlatform"`
	Capabilities    []Capability `json:"capabilities"`
}

type Capability struct {
	Type string `json:"type"`
}

// UserInfo carries the label set in both directions.
type UserInfo struct {
	Labels []node.LabelDelta `json:"labels,omitempty"`
}

// ChangeResponse is one incoming page: the new version token, the
// changed nodes and labels, a truncation marker, and the fatal protocol
// flags.
type ChangeResponse struct {
	ToVersion          string       `json:"toVersion"`
	Truncated          bool         `json:"truncated"`
	Nodes              []node.Delta `json:"nodes,omitempty"`
	UserInfo           *UserInfo    `json:"userInfo,omitempty"`
	ForceFullResync    bool         `json:"forceFullResync,omitempty"`
	UpgradeRecommended bool         `json:"upgradeRecommended,omitempty"`
}

// Capabilities advertised on every request.
var defaultCapabilities = []Capability{
	{Type: "NC"}, // color support
	{Type: "PI"}, // pinned support
	{Type: "LB"}, // labels
	{Type: "AN"}, // annotations
	{Type: "SH"}, // sharing
	{Type: "DR"}, // drawings
	{Type: "TR"}, // trash
	{Type: "IN"}, // indentation
}
