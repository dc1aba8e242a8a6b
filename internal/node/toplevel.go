package node

import (
	"sort"
	"strings"
)

// sortStep is the gap between sibling sort values assigned by an
// explicit resort.
const sortStep = 10000

// TopLevel carries the state shared by nodes parented directly by the
// root sentinel.
type TopLevel struct {
	Core
	color    Color
	archived bool
	pinned   bool
	title    string

	Labels        *LabelSet
	Collaborators *Collaborators
}

func newTopLevel(kind Kind) TopLevel {
	return TopLevel{
		Core:          newCore(kind, RootID),
		color:         ColorWhite,
		Labels:        NewLabelSet(),
		Collaborators: NewCollaborators(),
	}
}

func (t *TopLevel) Color() Color { return t.color }

func (t *TopLevel) SetColor(value Color) {
	t.color = value
	t.Touch(true)
}

func (t *TopLevel) Archived() bool { return t.archived }

func (t *TopLevel) SetArchived(value bool) {
	t.archived = value
	t.Touch(true)
}

func (t *TopLevel) Pinned() bool { return t.pinned }

func (t *TopLevel) SetPinned(value bool) {
	t.pinned = value
	t.Touch(true)
}

func (t *TopLevel) Title() string { return t.title }

func (t *TopLevel) SetTitle(value string) {
	t.title = value
	t.Touch(true)
}

// Blobs returns the media blob children.
func (t *TopLevel) Blobs() []*Blob {
	var out []*Blob
	for _, child := range t.Children() {
		if blob, ok := child.(*Blob); ok {
			out = append(out, blob)
		}
	}
	return out
}

// ResolveLabels re-points every label reference through the given
// lookup.
func (t *TopLevel) ResolveLabels(lookup func(id string) *Label) {
	t.Labels.Resolve(lookup)
}

func (t *TopLevel) Dirty() bool {
	return t.Core.Dirty() || t.Labels.Dirty() || t.Collaborators.Dirty()
}

func (t *TopLevel) Load(d *Delta) error {
	if err := t.Core.load(d); err != nil {
		return err
	}
	t.color = ColorWhite
	if d.Color != nil {
		t.color = Color(*d.Color)
	}
	t.archived = d.IsArchived != nil && *d.IsArchived
	t.pinned = d.IsPinned != nil && *d.IsPinned
	t.title = ""
	if d.Title != nil {
		t.title = *d.Title
	}
	t.Labels.load(d.LabelIDs, d.LabelsDirty)
	t.Collaborators.load(d.RoleInfo, d.ShareRequests, d.CollaboratorsDirty)
	t.moved = len(d.Moved) > 0
	return nil
}

func (t *TopLevel) Save(clean bool) *Delta {
	d := t.Core.save(clean)
	color := string(t.color)
	archived := t.archived
	pinned := t.pinned
	title := t.title
	d.Color = &color
	d.IsArchived = &archived
	d.IsPinned = &pinned
	d.Title = &title
	if refs := t.Labels.save(clean); len(refs) > 0 {
		d.LabelIDs = refs
	}
	d.RoleInfo, d.ShareRequests = t.Collaborators.save(clean)
	if !clean {
		d.LabelsDirty = t.Labels.dirty
		d.CollaboratorsDirty = t.Collaborators.dirty
	}
	return d
}

// Note is a plain note. Its text lives on a single hidden list item
// child, mirroring the server's storage model.
type Note struct {
	TopLevel
}

func NewNote() *Note {
	return &Note{TopLevel: newTopLevel(KindNote)}
}

func (n *Note) textNode() *ListItem {
	for _, child := range n.Children() {
		if item, ok := child.(*ListItem); ok {
			return item
		}
	}
	return nil
}

func (n *Note) Text() string {
	if item := n.textNode(); item != nil {
		return item.Text()
	}
	return n.Core.Text()
}

func (n *Note) SetText(value string) {
	item := n.textNode()
	if item == nil {
		item = NewListItem(n.ID())
		n.Append(item, true)
	}
	item.SetText(value)
	n.Touch(true)
}

func (n *Note) String() string {
	return n.Title() + "\n" + n.Text()
}

// List is a checklist note.
type List struct {
	TopLevel
}

func NewList() *List {
	return &List{TopLevel: newTopLevel(KindList)}
}

// Add appends a new unindented item with a random sort value.
func (l *List) Add(text string, checked bool) *ListItem {
	return l.add(text, checked, newSort())
}

// AddWithSort appends a new unindented item with an explicit sort value.
func (l *List) AddWithSort(text string, checked bool, sortValue int64) *ListItem {
	return l.add(text, checked, sortValue)
}

func (l *List) add(text string, checked bool, sortValue int64) *ListItem {
	item := NewListItem(l.ID())
	item.parentServerID = l.ServerID()
	item.SetChecked(checked)
	item.SetText(text)
	item.SetSort(sortValue)
	l.Append(item, true)
	l.Touch(true)
	return item
}

// Items returns the list's live items in display order.
func (l *List) Items() []*ListItem {
	return l.items(nil)
}

// Checked returns the live checked items in display order.
func (l *List) Checked() []*ListItem {
	checked := true
	return l.items(&checked)
}

// Unchecked returns the live unchecked items in display order.
func (l *List) Unchecked() []*ListItem {
	checked := false
	return l.items(&checked)
}

func (l *List) items(checked *bool) []*ListItem {
	byID := map[string]*ListItem{}
	for _, child := range l.Children() {
		if item, ok := child.(*ListItem); ok {
			byID[item.ID()] = item
		}
	}
	var out []*ListItem
	for _, item := range byID {
		if item.Deleted() {
			continue
		}
		if checked != nil && item.Checked() != *checked {
			continue
		}
		out = append(out, item)
	}
	return sortItems(out, func(item *ListItem) *ListItem {
		return byID[item.SuperItemID()]
	})
}

// ResortItems reorders the whole list: items are ranked by the given
// comparison and receive evenly spaced descending sort values in one
// pass.
func (l *List) ResortItems(less func(a, b *ListItem) bool) {
	items := l.items(nil)
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
	base := newSort()
	for i, item := range items {
		item.SetSort(base - int64(i)*sortStep)
	}
}

func (l *List) Text() string {
	var lines []string
	for _, item := range l.Items() {
		lines = append(lines, item.String())
	}
	return strings.Join(lines, "\n")
}

func (l *List) String() string {
	return l.Title() + "\n" + l.Text()
}

// sortItems orders items by composite key, compared descending: an
// indented item ranks by (parent sort, own sort); an unindented item by
// (own sort) alone, where the shorter key outranks a longer one sharing
// its prefix.
func sortItems(items []*ListItem, parentOf func(*ListItem) *ListItem) []*ListItem {
	key := func(item *ListItem) []int64 {
		if item.Indented() {
			if parent := parentOf(item); parent != nil {
				return []int64{parent.Sort(), item.Sort()}
			}
		}
		return []int64{item.Sort()}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return compareSortKeys(key(items[i]), key(items[j])) > 0
	})
	return items
}

func compareSortKeys(a, b []int64) int {
	for i := 0; i < len(a) || i < len(b); i++ {
		switch {
		case i >= len(a):
			return 1
		case i >= len(b):
			return -1
		case a[i] != b[i]:
			if a[i] > b[i] {
				return 1
			}
			return -1
		}
	}
	return 0
}
