package node

import (
	"testing"
	"time"
)

func mustWireDelta(t *testing.T, id string, kind Kind) *Delta {
	t.Helper()
	now := FormatTime(time.Now())
	return &Delta{
		ID:   id,
		Kind: wireKindNode,
		Type: string(kind),
		Timestamps: &TimestampsDelta{
			Kind:    wireKindTimestamps,
			Created: now,
			Updated: now,
		},
		NodeSettings: &SettingsDelta{
			NewListItemPlacement:   string(PlacementBottom),
			GraveyardState:         string(GraveyardCollapsed),
			CheckedListItemsPolicy: string(CheckedPolicyGraveyard),
		},
		AnnotationsGroup: &AnnotationsDelta{Kind: wireKindAnnotation},
	}
}

func mustItemTexts(t *testing.T, items []*ListItem) []string {
	t.Helper()
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Text())
	}
	return out
}

func sameTexts(a []string, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
