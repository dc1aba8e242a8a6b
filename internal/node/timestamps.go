package node

import "time"

// TimeFormat is the wire layout for all protocol timestamps: UTC with
// millisecond precision.
const TimeFormat = "2006-01-02T15:04:05.000Z"

var epoch = time.Unix(0, 0).UTC()

// FormatTime renders a timestamp in the wire layout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// ParseTime parses a wire timestamp.
func ParseTime(value string) (time.Time, error) {
	return time.Parse(TimeFormat, value)
}

// Timestamps is the lifecycle timestamp block owned by nodes and labels.
// Entities holding one delegate their touch/trashed/deleted behavior to
// it rather than inheriting it.
type Timestamps struct {
	dirty   bool
	created time.Time
	updated time.Time
	edited  *time.Time
	trashed *time.Time
	deleted *time.Time
}

// NewTimestamps builds a block for an entity created at the given time.
func NewTimestamps(created time.Time) *Timestamps {
	created = created.UTC().Truncate(time.Millisecond)
	edited := created
	trashed := epoch
	deleted := epoch
	return &Timestamps{
		created: created,
		updated: created,
		edited:  &edited,
		trashed: &trashed,
		deleted: &deleted,
	}
}

func (ts *Timestamps) Created() time.Time { return ts.created }

func (ts *Timestamps) SetCreated(value time.Time) {
	ts.created = value.UTC()
	ts.dirty = true
}

func (ts *Timestamps) Updated() time.Time { return ts.updated }

func (ts *Timestamps) SetUpdated(value time.Time) {
	ts.updated = value.UTC()
	ts.dirty = true
}

// Edited returns the user-edited time, or the zero time when unset.
func (ts *Timestamps) Edited() time.Time {
	if ts.edited == nil {
		return time.Time{}
	}
	return *ts.edited
}

func (ts *Timestamps) SetEdited(value time.Time) {
	v := value.UTC()
	ts.edited = &v
	ts.dirty = true
}

// TrashedAt returns the trash time, or the zero time when unset.
func (ts *Timestamps) TrashedAt() time.Time {
	if ts.trashed == nil {
		return time.Time{}
	}
	return *ts.trashed
}

func (ts *Timestamps) SetTrashedAt(value time.Time) {
	v := value.UTC()
	ts.trashed = &v
	ts.dirty = true
}

// DeletedAt returns the deletion time, or the zero time when unset.
func (ts *Timestamps) DeletedAt() time.Time {
	if ts.deleted == nil {
		return time.Time{}
	}
	return *ts.deleted
}

func (ts *Timestamps) SetDeletedAt(value time.Time) {
	v := value.UTC()
	ts.deleted = &v
	ts.dirty = true
}

// IsTrashed reports whether a trash time after the epoch is recorded.
func (ts *Timestamps) IsTrashed() bool {
	return ts.trashed != nil && ts.trashed.After(epoch)
}

// IsDeleted reports whether a deletion time after the epoch is recorded.
func (ts *Timestamps) IsDeleted() bool {
	return ts.deleted != nil && ts.deleted.After(epoch)
}

// Touch records an update now, optionally marking a user edit.
func (ts *Timestamps) Touch(edited bool) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	ts.updated = now
	if edited {
		ts.edited = &now
	}
	ts.dirty = true
}

func (ts *Timestamps) Dirty() bool { return ts.dirty }

// Load replaces the block from its wire form.
func (ts *Timestamps) Load(d *TimestampsDelta) error {
	created, err := ParseTime(d.Created)
	if err != nil {
		return parseError("timestamps", d, err)
	}
	updated, err := ParseTime(d.Updated)
	if err != nil {
		return parseError("timestamps", d, err)
	}
	ts.created = created
	ts.updated = updated
	ts.edited = nil
	ts.trashed = nil
	ts.deleted = nil
	if d.Edited != "" {
		v, err := ParseTime(d.Edited)
		if err != nil {
			return parseError("timestamps", d, err)
		}
		ts.edited = &v
	}
	if d.Trashed != "" {
		v, err := ParseTime(d.Trashed)
		if err != nil {
			return parseError("timestamps", d, err)
		}
		ts.trashed = &v
	}
	if d.Deleted != "" {
		v, err := ParseTime(d.Deleted)
		if err != nil {
			return parseError("timestamps", d, err)
		}
		ts.deleted = &v
	}
	ts.dirty = d.Dirty
	return nil
}

// Save renders the block in its wire form, clearing the dirty bit unless
// asked to preserve it for a snapshot.
func (ts *Timestamps) Save(clean bool) *TimestampsDelta {
	d := &TimestampsDelta{
		Kind:    wireKindTimestamps,
		Created: FormatTime(ts.created),
		Updated: FormatTime(ts.updated),
	}
	if ts.edited != nil {
		d.Edited = FormatTime(*ts.edited)
	}
	if ts.trashed != nil {
		d.Trashed = FormatTime(*ts.trashed)
	}
	if ts.deleted != nil {
		d.Deleted = FormatTime(*ts.deleted)
	}
	if clean {
		ts.dirty = false
	} else {
		d.Dirty = ts.dirty
	}
	return d
}
