package node

import "encoding/json"

// Delta is the wire representation of a single node within one sync
// exchange. Optional fields are pointers so their absence survives a
// round trip; in particular a nil ParentID on a known node means the
// server deleted it.
type Delta struct {
	ID               string            `json:"id"`
	Kind             string            `json:"kind,omitempty"`
	Type             string            `json:"type"`
	ParentID         *string           `json:"parentId,omitempty"`
	ServerID         string            `json:"serverId,omitempty"`
	SortValue        *int64            `json:"sortValue,omitempty"`
	BaseVersion      *int64            `json:"baseVersion,omitempty"`
	Text             *string           `json:"text,omitempty"`
	Timestamps       *TimestampsDelta  `json:"timestamps,omitempty"`
	NodeSettings     *SettingsDelta    `json:"nodeSettings,omitempty"`
	AnnotationsGroup *AnnotationsDelta `json:"annotationsGroup,omitempty"`

	// Top-level node fields.
	Color         *string             `json:"color,omitempty"`
	IsArchived    *bool               `json:"isArchived,omitempty"`
	IsPinned      *bool               `json:"isPinned,omitempty"`
	Title         *string             `json:"title,omitempty"`
	LabelIDs      []LabelRef          `json:"labelIds,omitempty"`
	RoleInfo      []CollaboratorEntry `json:"roleInfo,omitempty"`
	ShareRequests []ShareRequestEntry `json:"shareRequests,omitempty"`

	// List item fields.
	Checked         *bool  `json:"checked,omitempty"`
	SuperListItemID string `json:"superListItemId,omitempty"`
	ParentServerID  string `json:"parentServerId,omitempty"`

	// Blob payload.
	Blob *BlobDelta `json:"blob,omitempty"`

	Moved         json.RawMessage `json:"moved,omitempty"`
	MergeConflict json.RawMessage `json:"mergeConflict,omitempty"`

	// Snapshot-only markers, never sent by the server.
	Dirty              bool `json:"_dirty,omitempty"`
	LabelsDirty        bool `json:"_labelsDirty,omitempty"`
	CollaboratorsDirty bool `json:"_collaboratorsDirty,omitempty"`
}

// TimestampsDelta is the wire form of a timestamps block. All values use
// the TimeFormat layout.
type TimestampsDelta struct {
	Kind    string `json:"kind,omitempty"`
	Created string `json:"created"`
	Updated string `json:"updated"`
	Edited  string `json:"userEdited,omitempty"`
	Trashed string `json:"trashed,omitempty"`
	Deleted string `json:"deleted,omitempty"`
	Dirty   bool   `json:"_dirty,omitempty"`
}

// SettingsDelta is the wire form of a node settings block.
type SettingsDelta struct {
	NewListItemPlacement   string `json:"newListItemPlacement"`
	GraveyardState         string `json:"graveyardState"`
	CheckedListItemsPolicy string `json:"checkedListItemsPolicy"`
	Dirty                  bool   `json:"_dirty,omitempty"`
}

// AnnotationsDelta is the wire form of the annotation container.
type AnnotationsDelta struct {
	Kind        string            `json:"kind,omitempty"`
	Annotations []AnnotationDelta `json:"annotations,omitempty"`
	Dirty       bool              `json:"_dirty,omitempty"`
}

// AnnotationDelta carries exactly one annotation variant; the populated
// field decides the concrete type.
type AnnotationDelta struct {
	ID            string                     `json:"id,omitempty"`
	WebLink       *WebLinkDelta              `json:"webLink,omitempty"`
	TopicCategory *CategoryDelta             `json:"topicCategory,omitempty"`
	TaskAssist    *TaskAssistDelta           `json:"taskAssist,omitempty"`
	Context       map[string]json.RawMessage `json:"context,omitempty"`
	Dirty         bool                       `json:"_dirty,omitempty"`
}

type WebLinkDelta struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	ImageURL      *string `json:"imageUrl,omitempty"`
	ProvenanceURL string  `json:"provenanceUrl"`
	Description   string  `json:"description"`
}

type CategoryDelta struct {
	Category string `json:"category"`
}

type TaskAssistDelta struct {
	SuggestType string `json:"suggestType"`
}

// LabelRef is a label back-reference on a top-level node. A removed
// reference carries its removal time in Deleted; live references carry
// the epoch.
type LabelRef struct {
	LabelID string `json:"labelId"`
	Deleted string `json:"deleted,omitempty"`
}

type CollaboratorEntry struct {
	Email         string `json:"email"`
	Role          string `json:"role"`
	AuxiliaryType string `json:"auxiliary_type,omitempty"`
}

type ShareRequestEntry struct {
	Email string `json:"email"`
	Type  string `json:"type"`
}

// BlobDelta is the wire form of a media payload descriptor.
type BlobDelta struct {
	Kind     string `json:"kind,omitempty"`
	Type     string `json:"type"`
	BlobID   string `json:"blob_id,omitempty"`
	MediaID  string `json:"media_id,omitempty"`
	Mimetype string `json:"mimetype,omitempty"`

	// Audio.
	Length int64 `json:"length,omitempty"`

	// Image.
	IsUploaded *bool `json:"is_uploaded,omitempty"`
	Width      int64 `json:"width,omitempty"`
	Height     int64 `json:"height,omitempty"`
	ByteSize   int64 `json:"byte_size,omitempty"`

	// Image and drawing.
	ExtractedText    string `json:"extracted_text,omitempty"`
	ExtractionStatus string `json:"extraction_status,omitempty"`

	// Drawing.
	DrawingInfo *DrawingInfoDelta `json:"drawingInfo,omitempty"`

	Dirty bool `json:"_dirty,omitempty"`
}

type DrawingInfoDelta struct {
	DrawingID              string     `json:"drawingId"`
	Snapshot               *BlobDelta `json:"snapshotData"`
	SnapshotFingerprint    string     `json:"snapshotFingerprint,omitempty"`
	ThumbnailGeneratedTime string     `json:"thumbnailGeneratedTime,omitempty"`
	InkHash                string     `json:"inkHash,omitempty"`
	SnapshotProtoFprint    string     `json:"snapshotProtoFprint,omitempty"`
}

// LabelDelta is the wire representation of a label within one sync
// exchange.
type LabelDelta struct {
	MainID     string           `json:"mainId"`
	Name       string           `json:"name"`
	Timestamps *TimestampsDelta `json:"timestamps,omitempty"`
	LastMerged string           `json:"lastMerged,omitempty"`
	Dirty      bool             `json:"_dirty,omitempty"`
}
