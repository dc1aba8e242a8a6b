package server

import (
	"strconv"
	"testing"

	"github.com/MarcoPoloResearchLab/notesync/internal/node"
	"github.com/MarcoPoloResearchLab/notesync/internal/sync"
)

func pushedDelta(id string) node.Delta {
	parent := node.RootID
	return node.Delta{
		ID:       id,
		Type:     string(node.KindNote),
		ParentID: &parent,
	}
}

func exchange(t *testing.T, store *Store, fromVersion string, deltas ...node.Delta) sync.ChangeResponse {
	t.Helper()
	return store.Exchange(sync.ChangeRequest{TargetVersion: fromVersion, Nodes: deltas})
}

func findEcho(t *testing.T, response sync.ChangeResponse, id string) node.Delta {
	t.Helper()
	for _, delta := range response.Nodes {
		if delta.ID == id {
			return delta
		}
	}
	t.Fatalf("expected response to echo node %q, got %d nodes", id, len(response.Nodes))
	return node.Delta{}
}

func TestStoreAssignsServerIDsOnFirstSight(t *testing.T) {
	store := NewStore(StoreConfig{})

	response := exchange(t, store, "", pushedDelta("n-1"), pushedDelta("n-2"))

	first := findEcho(t, response, "n-1")
	second := findEcho(t, response, "n-2")
	if first.ServerID != "s:1" || second.ServerID != "s:2" {
		t.Fatalf("expected server ids s:1 and s:2, got %q and %q", first.ServerID, second.ServerID)
	}
	if first.BaseVersion == nil || second.BaseVersion == nil {
		t.Fatalf("expected base versions on echoed nodes")
	}
	if first.Dirty || second.Dirty {
		t.Fatalf("expected dirty markers cleared on accepted nodes")
	}
	if response.ToVersion != "2" {
		t.Fatalf("expected version token 2, got %q", response.ToVersion)
	}

	repush := exchange(t, store, response.ToVersion, pushedDelta("n-1"))
	if echoed := findEcho(t, repush, "n-1"); echoed.ServerID != "s:1" {
		t.Fatalf("expected repushed node to keep server id s:1, got %q", echoed.ServerID)
	}
}

func TestStoreAnswersIncrementallyFromPresentedVersion(t *testing.T) {
	store := NewStore(StoreConfig{})

	first := exchange(t, store, "", pushedDelta("n-1"))
	second := exchange(t, store, first.ToVersion, pushedDelta("n-2"))

	if len(second.Nodes) != 1 || second.Nodes[0].ID != "n-2" {
		t.Fatalf("expected only the new node after version %q, got %d nodes", first.ToVersion, len(second.Nodes))
	}

	idle := exchange(t, store, second.ToVersion)
	if len(idle.Nodes) != 0 {
		t.Fatalf("expected no changes at current version, got %d nodes", len(idle.Nodes))
	}
	if idle.Truncated {
		t.Fatalf("expected idle exchange not to be truncated")
	}
}

func TestStorePagesLargeChangeSets(t *testing.T) {
	store := NewStore(StoreConfig{PageSize: 2})

	exchange(t, store, "", pushedDelta("n-1"), pushedDelta("n-2"), pushedDelta("n-3"))

	version := ""
	var pulled []string
	for page := 0; page < 4; page++ {
		response := exchange(t, store, version)
		for _, delta := range response.Nodes {
			pulled = append(pulled, delta.ID)
		}
		version = response.ToVersion
		if !response.Truncated {
			break
		}
	}

	if len(pulled) != 3 {
		t.Fatalf("expected 3 nodes across pages, got %v", pulled)
	}
	if version != "3" {
		t.Fatalf("expected final version token 3, got %q", version)
	}
}

func TestStoreTruncatedPageReportsIntermediateVersion(t *testing.T) {
	store := NewStore(StoreConfig{PageSize: 1})

	exchange(t, store, "", pushedDelta("n-1"), pushedDelta("n-2"))

	response := exchange(t, store, "")
	if !response.Truncated {
		t.Fatalf("expected truncated first page")
	}
	if response.ToVersion != "1" {
		t.Fatalf("expected page version token 1, got %q", response.ToVersion)
	}
	if len(response.Nodes) != 1 || response.Nodes[0].ID != "n-1" {
		t.Fatalf("expected oldest change first, got %+v", response.Nodes)
	}
}

func TestStoreRejectsStaleBaseVersion(t *testing.T) {
	store := NewStore(StoreConfig{})

	initial := exchange(t, store, "", pushedDelta("n-1"))
	staleVersion, err := strconv.ParseInt(initial.ToVersion, 10, 64)
	if err != nil {
		t.Fatalf("parse version token: %v", err)
	}

	fresh := pushedDelta("n-1")
	freshTitle := "second writer"
	fresh.Title = &freshTitle
	fresh.BaseVersion = &staleVersion
	exchange(t, store, initial.ToVersion, fresh)

	stale := pushedDelta("n-1")
	staleTitle := "first writer"
	stale.Title = &staleTitle
	stale.BaseVersion = &staleVersion
	response := exchange(t, store, initial.ToVersion, stale)

	conflicted := findEcho(t, response, "n-1")
	if len(conflicted.MergeConflict) == 0 {
		t.Fatalf("expected merge conflict marker on stale push")
	}
	if conflicted.Title == nil || *conflicted.Title != "second writer" {
		t.Fatalf("expected conflict echo to carry the stored state, got %+v", conflicted.Title)
	}

	pull := exchange(t, store, "")
	if stored := findEcho(t, pull, "n-1"); stored.Title == nil || *stored.Title != "second writer" {
		t.Fatalf("expected stale push to be discarded")
	}
}

func TestStoreTombstonesDeletedNodes(t *testing.T) {
	store := NewStore(StoreConfig{})

	initial := exchange(t, store, "", pushedDelta("n-1"))

	deletion := node.Delta{ID: "n-1", Type: string(node.KindNote)}
	response := exchange(t, store, initial.ToVersion, deletion)

	tombstone := findEcho(t, response, "n-1")
	if tombstone.ParentID != nil {
		t.Fatalf("expected tombstone without parent, got %q", *tombstone.ParentID)
	}

	unknown := node.Delta{ID: "n-missing", Type: string(node.KindNote)}
	idle := exchange(t, store, response.ToVersion, unknown)
	if len(idle.Nodes) != 0 {
		t.Fatalf("expected deletion of unknown node to be ignored, got %d nodes", len(idle.Nodes))
	}
}

func TestStoreReplacesLabelSet(t *testing.T) {
	store := NewStore(StoreConfig{})

	response := store.Exchange(sync.ChangeRequest{
		UserInfo: &sync.UserInfo{Labels: []node.LabelDelta{{MainID: "l-1", Name: "Errands", Dirty: true}}},
	})
	if response.UserInfo == nil || len(response.UserInfo.Labels) != 1 {
		t.Fatalf("expected replaced label set to be echoed")
	}
	if response.UserInfo.Labels[0].Dirty {
		t.Fatalf("expected label dirty marker cleared on the server")
	}

	idle := exchange(t, store, response.ToVersion)
	if idle.UserInfo != nil {
		t.Fatalf("expected no label payload when nothing changed")
	}
}

func TestStoreForcedFatalFlags(t *testing.T) {
	store := NewStore(StoreConfig{})
	exchange(t, store, "", pushedDelta("n-1"))

	store.SetForceResync(true)
	response := exchange(t, store, "", pushedDelta("n-2"))
	if !response.ForceFullResync {
		t.Fatalf("expected forced resync flag")
	}
	if len(response.Nodes) != 0 {
		t.Fatalf("expected no deltas on forced resync, got %d", len(response.Nodes))
	}
	store.SetForceResync(false)

	store.SetForceUpgrade(true)
	response = exchange(t, store, "")
	if !response.UpgradeRecommended {
		t.Fatalf("expected forced upgrade flag")
	}
	store.SetForceUpgrade(false)

	pull := exchange(t, store, "")
	if len(pull.Nodes) != 1 || pull.Nodes[0].ID != "n-1" {
		t.Fatalf("expected flag exchanges not to mutate the store")
	}
}
