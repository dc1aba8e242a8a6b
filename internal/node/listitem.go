package node

// ListItem is a single checklist entry. An item may be indented under a
// sibling item; the indentation relation is carried as id references and
// a subitem set, not as parent pointers.
type ListItem struct {
	Core
	parentServerID  string
	superItemID     string
	prevSuperItemID string
	subItems        map[string]*ListItem
	checked         bool
}

func NewListItem(parentID string) *ListItem {
	return &ListItem{
		Core:     newCore(KindListItem, parentID),
		subItems: map[string]*ListItem{},
	}
}

func (l *ListItem) Checked() bool { return l.checked }

func (l *ListItem) SetChecked(value bool) {
	l.checked = value
	l.Touch(true)
}

// Indented reports whether the item sits under a super item.
func (l *ListItem) Indented() bool { return l.superItemID != "" }

// SuperItemID returns the id of the item this one is indented under, or
// "".
func (l *ListItem) SuperItemID() string { return l.superItemID }

// PrevSuperItemID returns the super-item id as it was before the most
// recent load, used to detect indent and dedent transitions.
func (l *ListItem) PrevSuperItemID() string { return l.prevSuperItemID }

// Indent places item under this one. Items that already hold subitems of
// their own are refused; indenting an item already under this one is a
// no-op apart from the dirty marking.
func (l *ListItem) Indent(item *ListItem, dirty bool) {
	if len(item.subItems) > 0 {
		return
	}
	l.subItems[item.ID()] = item
	item.superItemID = l.ID()
	if dirty {
		item.Touch(true)
	}
}

// Dedent removes item from this one's subitems. Items not indented here
// are left untouched.
func (l *ListItem) Dedent(item *ListItem, dirty bool) {
	if _, ok := l.subItems[item.ID()]; !ok {
		return
	}
	delete(l.subItems, item.ID())
	item.superItemID = ""
	if dirty {
		item.Touch(true)
	}
}

// SubItems returns the items indented under this one in display order.
func (l *ListItem) SubItems() []*ListItem {
	out := make([]*ListItem, 0, len(l.subItems))
	for _, item := range l.subItems {
		out = append(out, item)
	}
	return sortItems(out, func(item *ListItem) *ListItem {
		if item.SuperItemID() == l.ID() {
			return l
		}
		return nil
	})
}

func (l *ListItem) Load(d *Delta) error {
	if err := l.Core.load(d); err != nil {
		return err
	}
	l.parentServerID = d.ParentServerID
	l.prevSuperItemID = l.superItemID
	l.superItemID = d.SuperListItemID
	l.checked = d.Checked != nil && *d.Checked
	return nil
}

func (l *ListItem) Save(clean bool) *Delta {
	d := l.Core.save(clean)
	checked := l.checked
	d.Checked = &checked
	d.SuperListItemID = l.superItemID
	d.ParentServerID = l.parentServerID
	return d
}

func (l *ListItem) String() string {
	indent := ""
	if l.Indented() {
		indent = "  "
	}
	box := "[ ]"
	if l.checked {
		box = "[x]"
	}
	return indent + box + " " + l.Text()
}
