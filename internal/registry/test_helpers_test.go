package registry

import (
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/notesync/internal/node"
)

func mustWireDelta(t *testing.T, id string, kind node.Kind) *node.Delta {
	t.Helper()
	now := node.FormatTime(time.Now())
	parent := node.RootID
	return &node.Delta{
		ID:       id,
		Type:     string(kind),
		ParentID: &parent,
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

func mustServerNote(t *testing.T, id string, serverID string) *node.Note {
	t.Helper()
	d := mustWireDelta(t, id, node.KindNote)
	d.ServerID = serverID
	n, err := node.FromDelta(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	note, ok := n.(*node.Note)
	if !ok {
		t.Fatalf("expected note, got %T", n)
	}
	return note
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
