package sync

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/MarcoPoloResearchLab/notesync/internal/node"
	"github.com/MarcoPoloResearchLab/notesync/internal/registry"
)

func mustReconciler(t *testing.T) (*Reconciler, *registry.NodeRegistry, *registry.LabelRegistry) {
	t.Helper()
	nodes := registry.NewNodeRegistry(nil)
	labels := registry.NewLabelRegistry(nil)
	return NewReconciler(nodes, labels, nil), nodes, labels
}

func TestApplyNodesCreatesAndAttaches(t *testing.T) {
	r, nodes, _ := mustReconciler(t)
	listDelta := mustWireDelta(t, "l-1", node.KindList, node.RootID)
	listDelta.ServerID = "s-l-1"
	itemDelta := mustWireDelta(t, "i-1", node.KindListItem, "l-1")

	if err := r.ApplyNodes([]node.Delta{listDelta, itemDelta}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	list, ok := nodes.Get("l-1").(*node.List)
	if !ok {
		t.Fatalf("expected list to be created, got %T", nodes.Get("l-1"))
	}
	if nodes.Get("s-l-1") != list {
		t.Fatalf("expected server id index to resolve the list")
	}
	if list.Child("i-1") == nil {
		t.Fatalf("expected item to be attached under the list")
	}
	if list.Dirty() {
		t.Fatalf("server-applied state must not be dirty")
	}
}

func TestApplyNodesUpdatesInPlace(t *testing.T) {
	r, nodes, _ := mustReconciler(t)
	d := mustWireDelta(t, "n-1", node.KindNote, node.RootID)
	title := "before"
	d.Title = &title
	if err := r.ApplyNodes([]node.Delta{d}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := nodes.Get("n-1")

	updated := mustWireDelta(t, "n-1", node.KindNote, node.RootID)
	newTitle := "after"
	updated.Title = &newTitle
	updated.ServerID = "s-n-1"
	if err := r.ApplyNodes([]node.Delta{updated}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if nodes.Get("n-1") != first {
		t.Fatalf("update must keep the existing instance")
	}
	if got := first.(*node.Note).Title(); got != "after" {
		t.Fatalf("unexpected title %q", got)
	}
	if nodes.Get("s-n-1") != first {
		t.Fatalf("expected the revealed server id to be indexed")
	}
}

func TestApplyNodesDeletesOnMissingParent(t *testing.T) {
	r, nodes, _ := mustReconciler(t)
	d := mustWireDelta(t, "n-1", node.KindNote, node.RootID)
	d.ServerID = "s-n-1"
	if err := r.ApplyNodes([]node.Delta{d}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tombstone := mustWireDelta(t, "n-1", node.KindNote, "")
	tombstone.ParentID = nil
	if err := r.ApplyNodes([]node.Delta{tombstone}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if nodes.Get("n-1") != nil || nodes.Get("s-n-1") != nil {
		t.Fatalf("expected node to be purged from both indices")
	}
	if len(nodes.All()) != 0 {
		t.Fatalf("expected node to be unlinked from the tree")
	}
}

func TestApplyNodesDiscardsUnknownAndMalformed(t *testing.T) {
	r, nodes, _ := mustReconciler(t)
	unknown := mustWireDelta(t, "x-1", node.Kind("HOLOGRAM"), node.RootID)
	malformed := mustWireDelta(t, "x-2", node.KindNote, node.RootID)
	malformed.Timestamps = nil
	valid := mustWireDelta(t, "n-1", node.KindNote, node.RootID)

	if err := r.ApplyNodes([]node.Delta{unknown, malformed, valid}); err != nil {
		t.Fatalf("expected the batch to survive discardable deltas, got %v", err)
	}
	if nodes.Get("x-1") != nil || nodes.Get("x-2") != nil {
		t.Fatalf("discarded deltas must not register nodes")
	}
	if nodes.Get("n-1") == nil {
		t.Fatalf("expected valid sibling delta to apply")
	}
}

func TestApplyNodesAbortsOnMergeConflict(t *testing.T) {
	r, nodes, _ := mustReconciler(t)
	conflicted := mustWireDelta(t, "n-1", node.KindNote, node.RootID)
	conflicted.MergeConflict = json.RawMessage(`{"id":"n-1"}`)

	err := r.ApplyNodes([]node.Delta{conflicted})
	if !errors.Is(err, node.ErrMergeConflict) {
		t.Fatalf("expected merge conflict error, got %v", err)
	}
	if nodes.Get("n-1") != nil {
		t.Fatalf("conflicted delta must not register a node")
	}
}

func TestApplyNodesIndentsAndDedents(t *testing.T) {
	r, nodes, _ := mustReconciler(t)
	listDelta := mustWireDelta(t, "l-1", node.KindList, node.RootID)
	parentDelta := mustWireDelta(t, "i-parent", node.KindListItem, "l-1")
	childDelta := mustWireDelta(t, "i-child", node.KindListItem, "l-1")
	childDelta.SuperListItemID = "i-parent"

	if err := r.ApplyNodes([]node.Delta{listDelta, parentDelta, childDelta}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	parent := nodes.Get("i-parent").(*node.ListItem)
	child := nodes.Get("i-child").(*node.ListItem)
	if len(parent.SubItems()) != 1 || !child.Indented() {
		t.Fatalf("expected child to be indented under parent")
	}

	// The next page dedents the child.
	flat := mustWireDelta(t, "i-child", node.KindListItem, "l-1")
	if err := r.ApplyNodes([]node.Delta{flat}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parent.SubItems()) != 0 || child.Indented() {
		t.Fatalf("expected child to be dedented")
	}
}

func TestApplyResolvesLabelsArrivingInSamePage(t *testing.T) {
	transport := &scriptedTransport{responses: []ChangeResponse{{
		ToVersion: "v1",
		UserInfo:  &UserInfo{Labels: []node.LabelDelta{mustLabelDelta(t, "tag.aaa.1", "work")}},
		Nodes: []node.Delta{func() node.Delta {
			d := mustWireDelta(t, "n-1", node.KindNote, node.RootID)
			d.LabelIDs = []node.LabelRef{{LabelID: "tag.aaa.1"}}
			return d
		}()},
	}}}
	engine := mustEngine(t, transport)
	if err := engine.Sync(context.Background(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	note := engine.Nodes().Get("n-1").(*node.Note)
	labels := note.Labels.All()
	if len(labels) != 1 || labels[0].Name() != "work" {
		t.Fatalf("expected same-page label to resolve, got %v", labels)
	}
}
