package sync

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/MarcoPoloResearchLab/notesync/internal/node"
	"github.com/MarcoPoloResearchLab/notesync/internal/registry"
)

// Reconciler applies one batch of server deltas to the registries. A
// malformed delta is discarded with a diagnostic and the rest of the
// batch still applies; a conflict-marked delta aborts the batch.
type Reconciler struct {
	log    *zap.Logger
	nodes  *registry.NodeRegistry
	labels *registry.LabelRegistry
}

func NewReconciler(nodes *registry.NodeRegistry, labels *registry.LabelRegistry, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{log: logger, nodes: nodes, labels: labels}
}

// ApplyLabels replaces the label set from a response payload.
func (r *Reconciler) ApplyLabels(deltas []node.LabelDelta) {
	r.labels.Apply(deltas)
}

// ApplyNodes runs the reconciliation passes over one delta batch:
// update/delete/create, list item indentation, attach, detach, and the
// label back-reference resolution.
func (r *Reconciler) ApplyNodes(deltas []node.Delta) error {
	var created []node.Node
	var deleted []node.Node
	var items []*node.ListItem

	for i := range deltas {
		d := &deltas[i]
		var current node.Node

		if existing := r.nodes.Get(d.ID); existing != nil {
			if d.ParentID == nil {
				// The server dropped the parent edge: the node is gone.
				deleted = append(deleted, existing)
				continue
			}
			if err := existing.Load(d); err != nil {
				if discardable(err) {
					r.log.Warn("discarded malformed node delta", zap.String("node_id", d.ID), zap.Error(err))
					continue
				}
				return fmt.Errorf("apply delta for %s: %w", d.ID, err)
			}
			r.nodes.RecordServerID(existing)
			r.log.Debug("updated node", zap.String("node_id", d.ID))
			current = existing
		} else {
			n, err := node.FromDelta(d)
			if err != nil {
				if discardable(err) {
					r.log.Warn("discarded malformed node delta", zap.String("node_id", d.ID), zap.Error(err))
					continue
				}
				return fmt.Errorf("apply delta for %s: %w", d.ID, err)
			}
			if n == nil {
				continue
			}
			r.nodes.Register(n)
			created = append(created, n)
			r.log.Debug("created node", zap.String("node_id", d.ID))
			current = n
		}

		if item, ok := current.(*node.ListItem); ok {
			items = append(items, item)
		}
	}

	r.applyIndentation(items)
	r.attach(created)
	r.detach(deleted)
	r.resolveLabels()
	return nil
}

// applyIndentation moves list items between super items when their
// super-item id changed in this batch. Comparing the previous and the
// current id avoids rebuilding subitem sets when unrelated fields
// changed.
func (r *Reconciler) applyIndentation(items []*node.ListItem) {
	for _, item := range items {
		prev := item.PrevSuperItemID()
		curr := item.SuperItemID()
		if prev == curr {
			continue
		}
		if prev != "" {
			if parent, ok := r.nodes.Get(prev).(*node.ListItem); ok {
				parent.Dedent(item, false)
			}
		}
		if curr != "" {
			if parent, ok := r.nodes.Get(curr).(*node.ListItem); ok {
				parent.Indent(item, false)
			}
		}
	}
}

func (r *Reconciler) attach(created []node.Node) {
	for _, n := range created {
		parent := r.nodes.Get(n.ParentID())
		if parent == nil {
			r.log.Error("orphaned node in server batch",
				zap.String("operation", "sync.reconcile.attach"),
				zap.String("node_id", n.ID()),
				zap.String("parent_id", n.ParentID()))
			continue
		}
		parent.Append(n, false)
	}
}

func (r *Reconciler) detach(deleted []node.Node) {
	for _, n := range deleted {
		r.nodes.Detach(n)
		r.log.Debug("deleted node", zap.String("node_id", n.ID()))
	}
}

// resolveLabels re-points label references on every top-level node.
// Labels can arrive in the same page as the nodes referencing them, so
// this runs after everything else.
func (r *Reconciler) resolveLabels() {
	for _, n := range r.nodes.All() {
		if top, ok := n.(labelled); ok {
			top.ResolveLabels(r.labels.Get)
		}
	}
}

type labelled interface {
	ResolveLabels(lookup func(id string) *node.Label)
}

func discardable(err error) bool {
	var parseErr *node.ParseError
	return errors.As(err, &parseErr)
}
