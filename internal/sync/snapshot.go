package sync

import (
	"github.com/MarcoPoloResearchLab/notesync/internal/node"
)

// Snapshot is the engine's full serialized state: the version token and
// every node and label with dirty markers preserved. Persistence of the
// snapshot belongs to the caller.
type Snapshot struct {
	Version string            `json:"version"`
	Nodes   []node.Delta      `json:"nodes"`
	Labels  []node.LabelDelta `json:"labels"`
}

// Dump serializes the current state without clearing any dirty flags.
func (e *Engine) Dump() Snapshot {
	e.nodes.Reindex()
	snapshot := Snapshot{
		Version: e.version,
		Nodes:   []node.Delta{},
		Labels:  e.labels.Deltas(false),
	}
	queue := e.nodes.All()
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		snapshot.Nodes = append(snapshot.Nodes, *n.Save(false))
		queue = append(queue, n.Children()...)
	}
	return snapshot
}

// Restore discards all state and replays the snapshot through the same
// reconciliation path used for live responses, as one synthetic page.
func (e *Engine) Restore(snapshot Snapshot) error {
	e.nodes.Reset()
	e.labels.Reset()
	e.version = ""

	e.reconciler.ApplyLabels(snapshot.Labels)
	if err := e.reconciler.ApplyNodes(snapshot.Nodes); err != nil {
		return err
	}
	e.version = snapshot.Version
	return nil
}
