package node

import "time"

// Label is a user-defined tag. Labels live outside the node tree and are
// referenced by id from top-level nodes.
type Label struct {
	dirty      bool
	id         string
	name       string
	merged     time.Time
	Timestamps *Timestamps
}

// NewLabel creates an unnamed label with a fresh id.
func NewLabel() *Label {
	now := time.Now()
	return &Label{
		id:         newLabelID(),
		merged:     epoch,
		Timestamps: NewTimestamps(now),
	}
}

func (l *Label) ID() string { return l.id }

func (l *Label) Name() string { return l.name }

func (l *Label) SetName(value string) {
	l.name = value
	l.Touch(true)
}

// Merged returns the last merge time reported by the server.
func (l *Label) Merged() time.Time { return l.merged }

func (l *Label) SetMerged(value time.Time) {
	l.merged = value.UTC()
	l.Touch(false)
}

// Touch records a local modification.
func (l *Label) Touch(edited bool) {
	l.dirty = true
	l.Timestamps.Touch(edited)
}

// Trashed reports whether the label is in the trash.
func (l *Label) Trashed() bool { return l.Timestamps.IsTrashed() }

// Deleted reports whether the label is marked for deletion.
func (l *Label) Deleted() bool { return l.Timestamps.IsDeleted() }

// Delete marks the label for deletion on the next sync.
func (l *Label) Delete() {
	l.Timestamps.SetDeletedAt(time.Now())
	l.dirty = true
}

func (l *Label) Dirty() bool {
	return l.dirty || l.Timestamps.Dirty()
}

func (l *Label) Load(d *LabelDelta) error {
	if d.MainID == "" {
		return parseError("label", d, errMissingField("mainId"))
	}
	if d.Timestamps == nil {
		return parseError("label", d, errMissingField("timestamps"))
	}
	if err := l.Timestamps.Load(d.Timestamps); err != nil {
		return err
	}
	l.id = d.MainID
	l.name = d.Name
	l.merged = epoch
	if d.LastMerged != "" {
		merged, err := ParseTime(d.LastMerged)
		if err != nil {
			return parseError("label", d, err)
		}
		l.merged = merged
	}
	l.dirty = d.Dirty
	return nil
}

func (l *Label) Save(clean bool) *LabelDelta {
	d := &LabelDelta{
		MainID:     l.id,
		Name:       l.name,
		Timestamps: l.Timestamps.Save(clean),
		LastMerged: FormatTime(l.merged),
	}
	if clean {
		l.dirty = false
	} else {
		d.Dirty = l.dirty
	}
	return d
}
