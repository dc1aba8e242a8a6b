package node

import (
	"errors"
	"testing"
	"time"
)

func TestLabelSetKeepsRemovalTombstone(t *testing.T) {
	label := NewLabel()
	label.SetName("urgent")

	set := NewLabelSet()
	set.Add(label)
	set.Remove(label)

	if got := set.All(); len(got) != 0 {
		t.Fatalf("expected no live labels, got %d", len(got))
	}
	ids := set.IDs()
	if len(ids) != 1 || ids[0] != label.ID() {
		t.Fatalf("expected tombstone id to survive, got %v", ids)
	}

	refs := set.save(true)
	if len(refs) != 1 {
		t.Fatalf("expected one reference, got %d", len(refs))
	}
	deleted, err := ParseTime(refs[0].Deleted)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted.After(epoch) {
		t.Fatalf("expected removal time after the epoch, got %v", deleted)
	}
}

func TestLabelSetResolvesReferences(t *testing.T) {
	label := NewLabel()
	label.SetName("work")

	set := NewLabelSet()
	set.load([]LabelRef{{LabelID: label.ID()}}, false)
	if got := set.Get(label.ID()); got != nil {
		t.Fatalf("expected unresolved reference, got %v", got)
	}

	set.Resolve(func(id string) *Label {
		if id == label.ID() {
			return label
		}
		return nil
	})
	if got := set.Get(label.ID()); got != label {
		t.Fatalf("expected reference to resolve")
	}
	if len(set.All()) != 1 {
		t.Fatalf("expected one live label")
	}
}

func TestLabelRoundTrip(t *testing.T) {
	label := NewLabel()
	label.SetName("travel")
	label.SetMerged(time.Now())

	d := label.Save(true)
	if label.Dirty() {
		t.Fatalf("expected clean save to clear dirty state")
	}

	loaded := NewLabel()
	if err := loaded.Load(d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.ID() != label.ID() {
		t.Fatalf("expected id %q, got %q", label.ID(), loaded.ID())
	}
	if loaded.Name() != "travel" {
		t.Fatalf("unexpected name %q", loaded.Name())
	}
	if loaded.Dirty() {
		t.Fatalf("loaded label must be clean")
	}
}

func TestLabelLoadRequiresMainID(t *testing.T) {
	err := NewLabel().Load(&LabelDelta{Name: "orphan"})
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected parse error, got %v", err)
	}
}
