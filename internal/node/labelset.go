package node

import (
	"sort"
	"time"
)

// LabelSet is the set of label references on a top-level node. Values
// may be nil after a load or a removal; the registry's back-reference
// pass re-resolves them once label reconciliation has run.
type LabelSet struct {
	dirty  bool
	labels map[string]*Label
}

func NewLabelSet() *LabelSet {
	return &LabelSet{labels: map[string]*Label{}}
}

func (s *LabelSet) Len() int { return len(s.labels) }

// Add references a label.
func (s *LabelSet) Add(label *Label) {
	s.labels[label.ID()] = label
	s.dirty = true
}

// Remove drops a reference. The id is kept with a nil value so the
// removal reaches the server on the next push.
func (s *LabelSet) Remove(label *Label) {
	if _, ok := s.labels[label.ID()]; ok {
		s.labels[label.ID()] = nil
	}
	s.dirty = true
}

// Get returns the referenced label, or nil when absent or unresolved.
func (s *LabelSet) Get(id string) *Label {
	return s.labels[id]
}

// All returns the resolved labels.
func (s *LabelSet) All() []*Label {
	var out []*Label
	for _, label := range s.labels {
		if label != nil {
			out = append(out, label)
		}
	}
	return out
}

// IDs returns every referenced label id, resolved or not.
func (s *LabelSet) IDs() []string {
	out := make([]string, 0, len(s.labels))
	for id := range s.labels {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Resolve re-points every reference through the given lookup. Labels may
// arrive in the same sync page as the nodes referencing them, so this
// runs after label reconciliation.
func (s *LabelSet) Resolve(lookup func(id string) *Label) {
	for id := range s.labels {
		s.labels[id] = lookup(id)
	}
}

func (s *LabelSet) Dirty() bool { return s.dirty }

func (s *LabelSet) load(refs []LabelRef, dirty bool) {
	s.dirty = dirty
	s.labels = map[string]*Label{}
	for _, ref := range refs {
		s.labels[ref.LabelID] = nil
	}
}

func (s *LabelSet) save(clean bool) []LabelRef {
	ids := s.IDs()
	refs := make([]LabelRef, 0, len(ids))
	for _, id := range ids {
		deleted := FormatTime(epoch)
		if s.labels[id] == nil {
			deleted = FormatTime(time.Now())
		}
		refs = append(refs, LabelRef{LabelID: id, Deleted: deleted})
	}
	if clean {
		s.dirty = false
	}
	return refs
}
