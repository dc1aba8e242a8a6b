package node

import (
	"sort"
	"time"

	"go.uber.org/zap"
)

// RootID is the fixed id of the root sentinel.
const RootID = "root"

// sortTop is the sort value that places a node ahead of every
// randomly-keyed sibling.
const sortTop = 10021928693

// Node is implemented by every entry in the note tree.
type Node interface {
	ID() string
	ServerID() string
	ParentID() string
	Kind() Kind
	Sort() int64
	New() bool
	Dirty() bool
	Children() []Node
	Child(id string) Node
	Append(child Node, dirty bool)
	RemoveChild(child Node, dirty bool)
	Touch(edited bool)
	Load(d *Delta) error
	Save(clean bool) *Delta
}

// Core carries the state shared by every node variant. Variants embed it
// and layer their own fields on Load/Save/Dirty.
type Core struct {
	id       string
	serverID string
	parentID string
	kind     Kind
	sort     int64
	version  *int64
	text     string
	children map[string]Node
	moved    bool
	dirty    bool

	Timestamps  *Timestamps
	Settings    *Settings
	Annotations *Annotations
}

func newCore(kind Kind, parentID string) Core {
	now := time.Now()
	return Core{
		id:          NewID(),
		parentID:    parentID,
		kind:        kind,
		sort:        newSort(),
		children:    map[string]Node{},
		Timestamps:  NewTimestamps(now),
		Settings:    NewSettings(),
		Annotations: NewAnnotations(),
	}
}

// ID returns the locally generated, stable node id.
func (c *Core) ID() string { return c.id }

// ServerID returns the server-assigned id, or "" before the first
// acknowledged push.
func (c *Core) ServerID() string { return c.serverID }

// ParentID returns the id of the owning parent.
func (c *Core) ParentID() string { return c.parentID }

func (c *Core) setParentID(id string) { c.parentID = id }

func (c *Core) Kind() Kind { return c.kind }

// New reports whether the node has never been acknowledged by the
// server.
func (c *Core) New() bool { return c.serverID == "" }

// Sort returns the opaque ordering key.
func (c *Core) Sort() int64 { return c.sort }

func (c *Core) SetSort(value int64) {
	c.sort = value
	c.Touch(false)
}

// MoveToTop orders the node ahead of its randomly-keyed siblings.
func (c *Core) MoveToTop() {
	c.SetSort(sortTop)
}

// Version returns the server-assigned version counter; ok is false
// before the first sync.
func (c *Core) Version() (int64, bool) {
	if c.version == nil {
		return 0, false
	}
	return *c.version, true
}

// Text returns the node text.
func (c *Core) Text() string { return c.text }

func (c *Core) SetText(value string) {
	c.text = value
	c.Touch(true)
}

// Touch marks the node dirty and records an update time.
func (c *Core) Touch(edited bool) {
	c.dirty = true
	c.Timestamps.Touch(edited)
}

// Trashed reports whether the node is in the trash.
func (c *Core) Trashed() bool { return c.Timestamps.IsTrashed() }

func (c *Core) SetTrashed(value bool) {
	if value {
		c.Timestamps.SetTrashedAt(time.Now())
	} else {
		c.Timestamps.SetTrashedAt(epoch)
	}
	c.Touch(false)
}

// Deleted reports whether the node is marked for deletion.
func (c *Core) Deleted() bool { return c.Timestamps.IsDeleted() }

// Delete marks the node for deletion on the next sync.
func (c *Core) Delete() {
	c.Timestamps.SetDeletedAt(time.Now())
	c.dirty = true
}

// Children returns the owned children, ordered by descending sort value.
func (c *Core) Children() []Node {
	out := make([]Node, 0, len(c.children))
	for _, child := range c.children {
		out = append(out, child)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sort() != out[j].Sort() {
			return out[i].Sort() > out[j].Sort()
		}
		return out[i].ID() < out[j].ID()
	})
	return out
}

// Child returns the owned child with the given id, or nil.
func (c *Core) Child(id string) Node { return c.children[id] }

// Append takes ownership of a child node.
func (c *Core) Append(child Node, dirty bool) {
	c.children[child.ID()] = child
	if dirty {
		c.Touch(false)
	}
}

// RemoveChild releases ownership of a child node.
func (c *Core) RemoveChild(child Node, dirty bool) {
	delete(c.children, child.ID())
	if dirty {
		c.Touch(false)
	}
}

// Dirty reports whether the node itself, any owned sub-element, or any
// descendant has unsynced changes. Derived on every call, never stored.
func (c *Core) Dirty() bool {
	if c.dirty || c.Timestamps.Dirty() || c.Settings.Dirty() || c.Annotations.Dirty() {
		return true
	}
	for _, child := range c.children {
		if child.Dirty() {
			return true
		}
	}
	return false
}

func (c *Core) load(d *Delta) error {
	if len(d.MergeConflict) > 0 {
		return ErrMergeConflict
	}
	if !validKind(d.Type) {
		return parseError("node", d, errMissingField("type"))
	}
	if d.Kind != "" && d.Kind != wireKindNode {
		log.Warn("unknown node kind", zap.String("kind", d.Kind))
	}
	if d.Timestamps == nil {
		return parseError("node", d, errMissingField("timestamps"))
	}
	if d.NodeSettings == nil {
		return parseError("node", d, errMissingField("nodeSettings"))
	}
	if d.AnnotationsGroup == nil {
		return parseError("node", d, errMissingField("annotationsGroup"))
	}
	if err := c.Timestamps.Load(d.Timestamps); err != nil {
		return err
	}
	if err := c.Settings.Load(d.NodeSettings); err != nil {
		return err
	}
	if err := c.Annotations.Load(d.AnnotationsGroup); err != nil {
		return err
	}
	c.dirty = d.Dirty
	c.id = d.ID
	if d.ServerID != "" {
		c.serverID = d.ServerID
	}
	if d.ParentID != nil {
		c.parentID = *d.ParentID
	}
	if d.SortValue != nil {
		c.sort = *d.SortValue
	}
	if d.BaseVersion != nil {
		version := *d.BaseVersion
		c.version = &version
	}
	if d.Text != nil {
		c.text = *d.Text
	}
	return nil
}

func (c *Core) save(clean bool) *Delta {
	parentID := c.parentID
	sortValue := c.sort
	text := c.text
	d := &Delta{
		ID:               c.id,
		Kind:             wireKindNode,
		Type:             string(c.kind),
		ParentID:         &parentID,
		SortValue:        &sortValue,
		Text:             &text,
		Timestamps:       c.Timestamps.Save(clean),
		NodeSettings:     c.Settings.Save(clean),
		AnnotationsGroup: c.Annotations.Save(clean),
	}
	if !c.moved && c.version != nil {
		version := *c.version
		d.BaseVersion = &version
	}
	if c.serverID != "" {
		d.ServerID = c.serverID
	}
	if clean {
		c.dirty = false
	} else {
		d.Dirty = c.dirty
	}
	return d
}

// Root is the sentinel parent of all top-level nodes. It is never dirty
// and never serialized.
type Root struct {
	Core
}

func NewRoot() *Root {
	root := &Root{Core: newCore("", "")}
	root.Core.id = RootID
	return root
}

func (r *Root) Dirty() bool { return false }

func (r *Root) Load(d *Delta) error { return r.Core.load(d) }

func (r *Root) Save(clean bool) *Delta { return r.Core.save(clean) }

// FromDelta constructs a node from its wire form using the type tag.
// Unrecognized tags are discarded with a diagnostic and return nil; a
// conflict-marked or malformed delta returns an error.
func FromDelta(d *Delta) (Node, error) {
	if len(d.MergeConflict) > 0 {
		return nil, ErrMergeConflict
	}
	var n Node
	switch Kind(d.Type) {
	case KindNote:
		n = NewNote()
	case KindList:
		n = NewList()
	case KindListItem:
		n = NewListItem("")
	case KindBlob:
		n = NewBlob("")
	default:
		log.Warn("unknown node type", zap.String("node_id", d.ID), zap.String("type", d.Type))
		return nil, nil
	}
	if err := n.Load(d); err != nil {
		return nil, err
	}
	return n, nil
}

var (
	_ Node = (*Root)(nil)
	_ Node = (*Note)(nil)
	_ Node = (*List)(nil)
	_ Node = (*ListItem)(nil)
	_ Node = (*Blob)(nil)
)
