package registry

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/MarcoPoloResearchLab/notesync/internal/node"
)

// LabelRegistry owns the user's labels. Labels are replaced wholesale on
// every sync response that carries them: ids absent from the payload are
// implicitly deleted, and instance identity is not preserved across an
// update. Callers resolve labels by id after each sync.
type LabelRegistry struct {
	log    *zap.Logger
	labels map[string]*node.Label
}

func NewLabelRegistry(logger *zap.Logger) *LabelRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LabelRegistry{log: logger, labels: map[string]*node.Label{}}
}

// Reset discards every label.
func (r *LabelRegistry) Reset() {
	r.labels = map[string]*node.Label{}
}

// Create registers a new dirty label with the given name.
func (r *LabelRegistry) Create(name string) *node.Label {
	label := node.NewLabel()
	label.SetName(name)
	r.labels[label.ID()] = label
	return label
}

// Get returns the label with the given id, or nil.
func (r *LabelRegistry) Get(id string) *node.Label {
	return r.labels[id]
}

// Find returns the first label whose name matches, ignoring case, or
// nil.
func (r *LabelRegistry) Find(name string) *node.Label {
	for _, id := range r.ids() {
		if strings.EqualFold(r.labels[id].Name(), name) {
			return r.labels[id]
		}
	}
	return nil
}

// All returns every label in a stable id order.
func (r *LabelRegistry) All() []*node.Label {
	ids := r.ids()
	out := make([]*node.Label, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.labels[id])
	}
	return out
}

// Dirty reports whether any label has unsynced changes.
func (r *LabelRegistry) Dirty() bool {
	for _, label := range r.labels {
		if label.Dirty() {
			return true
		}
	}
	return false
}

// Deltas serializes every label for a push, clearing dirty state when
// asked.
func (r *LabelRegistry) Deltas(clean bool) []node.LabelDelta {
	ids := r.ids()
	out := make([]node.LabelDelta, 0, len(ids))
	for _, id := range ids {
		out = append(out, *r.labels[id].Save(clean))
	}
	return out
}

// Apply replaces the label set from a sync payload. Known ids are
// reloaded in place, unknown ids become new labels, malformed entries
// are discarded with a diagnostic, and ids missing from the payload are
// dropped.
func (r *LabelRegistry) Apply(deltas []node.LabelDelta) {
	next := map[string]*node.Label{}
	for i := range deltas {
		d := deltas[i]
		label, known := r.labels[d.MainID]
		if known {
			delete(r.labels, d.MainID)
		} else {
			label = node.NewLabel()
		}
		if err := label.Load(&d); err != nil {
			r.log.Warn("discarded malformed label delta", zap.String("label_id", d.MainID), zap.Error(err))
			if known {
				// Keep the prior state rather than dropping the label.
				next[d.MainID] = label
			}
			continue
		}
		next[d.MainID] = label
	}
	for id := range r.labels {
		r.log.Debug("label deleted by server", zap.String("label_id", id))
	}
	r.labels = next
}

func (r *LabelRegistry) ids() []string {
	ids := make([]string, 0, len(r.labels))
	for id := range r.labels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
