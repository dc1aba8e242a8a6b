// Package registry holds the id-indexed stores behind the sync engine:
// the node tree with its server-id secondary index, and the label set.
package registry

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/MarcoPoloResearchLab/notesync/internal/node"
)

// ErrNotTopLevel is returned when a node not parented by the root is
// added directly to the registry.
var ErrNotTopLevel = errors.New("registry: not a top level node")

// NodeRegistry owns every node in the local mirror. Tree edges live on
// the nodes themselves; the registry keeps the flat id index and the
// server-id mapping current.
type NodeRegistry struct {
	log        *zap.Logger
	root       *node.Root
	nodes      map[string]node.Node
	byServerID map[string]string
}

func NewNodeRegistry(logger *zap.Logger) *NodeRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &NodeRegistry{log: logger}
	r.Reset()
	return r
}

// Reset discards every node and starts from an empty tree.
func (r *NodeRegistry) Reset() {
	r.root = node.NewRoot()
	r.nodes = map[string]node.Node{node.RootID: r.root}
	r.byServerID = map[string]string{}
}

// Root returns the tree's sentinel root.
func (r *NodeRegistry) Root() *node.Root { return r.root }

// Get looks a node up by local id, falling back to the server-id index.
func (r *NodeRegistry) Get(id string) node.Node {
	if n, ok := r.nodes[id]; ok {
		return n
	}
	if localID, ok := r.byServerID[id]; ok {
		return r.nodes[localID]
	}
	return nil
}

// TopLevel returns the top-level node with the given local or server id,
// or nil when absent or not parented by the root.
func (r *NodeRegistry) TopLevel(id string) node.Node {
	n := r.Get(id)
	if n == nil || n.ParentID() != node.RootID {
		return nil
	}
	return n
}

// All returns the top-level nodes in display order.
func (r *NodeRegistry) All() []node.Node {
	return r.root.Children()
}

// Len returns the number of registered nodes, the root included.
func (r *NodeRegistry) Len() int { return len(r.nodes) }

// Add registers a top-level node, attaches it under the root, and marks
// it dirty so the next sync pushes it.
func (r *NodeRegistry) Add(n node.Node) error {
	if n.ParentID() != node.RootID {
		return fmt.Errorf("%w: %s is parented by %q", ErrNotTopLevel, n.ID(), n.ParentID())
	}
	r.Register(n)
	r.root.Append(n, false)
	n.Touch(false)
	return nil
}

// Register inserts a node into the id index and records its server id
// when one is known. Tree edges are not touched.
func (r *NodeRegistry) Register(n node.Node) {
	r.nodes[n.ID()] = n
	r.RecordServerID(n)
}

// RecordServerID refreshes the server-id index entry for a node. Called
// after every load that may have revealed a server id.
func (r *NodeRegistry) RecordServerID(n node.Node) {
	if n.ServerID() != "" {
		r.byServerID[n.ServerID()] = n.ID()
	}
}

// Detach unlinks a node from its parent and removes it from both
// indices. The node's own children are left registered; callers that
// delete a subtree detach leaves first.
func (r *NodeRegistry) Detach(n node.Node) {
	if parent := r.nodes[n.ParentID()]; parent != nil {
		parent.RemoveChild(n, false)
	}
	delete(r.nodes, n.ID())
	if n.ServerID() != "" {
		delete(r.byServerID, n.ServerID())
	}
}

// Reindex walks every registered node's children and registers any that
// were created directly on a node without going through the registry.
func (r *NodeRegistry) Reindex() {
	queue := make([]node.Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		queue = append(queue, n)
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, child := range n.Children() {
			if _, ok := r.nodes[child.ID()]; ok {
				continue
			}
			r.Register(child)
			queue = append(queue, child)
		}
	}
}

// DirtyNodes returns every registered node with unsynced changes, in a
// stable id order. A node whose descendant is dirty counts as dirty and
// is pushed alongside it.
func (r *NodeRegistry) DirtyNodes() []node.Node {
	ids := make([]string, 0, len(r.nodes))
	for id := range r.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var out []node.Node
	for _, id := range ids {
		if n := r.nodes[id]; n.Dirty() {
			out = append(out, n)
		}
	}
	return out
}

// AuditReachability checks that the flat index and the tree agree: every
// registered id must be reachable from the root, and every reachable id
// must be registered. Disagreements are reported and logged, never
// enforced.
func (r *NodeRegistry) AuditReachability() (dangling []string, unregistered []string) {
	found := map[string]bool{}
	queue := []node.Node{r.root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		found[n.ID()] = true
		queue = append(queue, n.Children()...)
	}

	for id := range r.nodes {
		if !found[id] {
			dangling = append(dangling, id)
		}
	}
	for id := range found {
		if _, ok := r.nodes[id]; !ok {
			unregistered = append(unregistered, id)
		}
	}
	sort.Strings(dangling)
	sort.Strings(unregistered)
	for _, id := range dangling {
		r.log.Error("registry audit failed", zap.String("operation", "registry.audit"), zap.String("reason", "dangling node"), zap.String("node_id", id))
	}
	for _, id := range unregistered {
		r.log.Error("registry audit failed", zap.String("operation", "registry.audit"), zap.String("reason", "unregistered node"), zap.String("node_id", id))
	}
	return dangling, unregistered
}
