package sync

import (
	"context"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/notesync/internal/node"
	"github.com/MarcoPoloResearchLab/notesync/internal/registry"
)

// scriptedTransport replays a fixed sequence of responses and records
// every request it saw.
type scriptedTransport struct {
	responses []ChangeResponse
	errs      []error
	requests  []ChangeRequest
}

func (s *scriptedTransport) Changes(_ context.Context, request ChangeRequest) (*ChangeResponse, error) {
	call := len(s.requests)
	s.requests = append(s.requests, request)
	if call < len(s.errs) && s.errs[call] != nil {
		return nil, s.errs[call]
	}
	if call >= len(s.responses) {
		return &ChangeResponse{ToVersion: "exhausted"}, nil
	}
	response := s.responses[call]
	return &response, nil
}

func mustEngine(t *testing.T, transport Transport) *Engine {
	t.Helper()
	engine, err := NewEngine(EngineConfig{
		Transport: transport,
		Nodes:     registry.NewNodeRegistry(nil),
		Labels:    registry.NewLabelRegistry(nil),
		SessionID: "session-test",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return engine
}

func mustWireDelta(t *testing.T, id string, kind node.Kind, parentID string) node.Delta {
	t.Helper()
	now := node.FormatTime(time.Now())
	return node.Delta{
		ID:       id,
		Type:     string(kind),
		ParentID: &parentID,
		Timestamps: &node.TimestampsDelta{
			Created: now,
			Updated: now,
		},
		NodeSettings: &node.SettingsDelta{
			NewListItemPlacement:   string(node.PlacementBottom),
			GraveyardState:         string(node.GraveyardCollapsed),
			CheckedListItemsPolicy: string(node.CheckedPolicyGraveyard),
		},
		AnnotationsGroup: &node.AnnotationsDelta{},
	}
}

func mustLabelDelta(t *testing.T, id string, name string) node.LabelDelta {
	t.Helper()
	now := node.FormatTime(time.Now())
	return node.LabelDelta{
		MainID: id,
		Name:   name,
		Timestamps: &node.TimestampsDelta{
			Created: now,
			Updated: now,
		},
	}
}
