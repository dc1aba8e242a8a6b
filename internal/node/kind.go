package node

// Kind enumerates the node variants understood by the sync protocol.
type Kind string

const (
	KindNote     Kind = "NOTE"
	KindList     Kind = "LIST"
	KindListItem Kind = "LIST_ITEM"
	KindBlob     Kind = "BLOB"
)

// BlobKind enumerates the media payload variants carried by a Blob node.
type BlobKind string

const (
	BlobAudio   BlobKind = "AUDIO"
	BlobImage   BlobKind = "IMAGE"
	BlobDrawing BlobKind = "DRAWING"
)

// Color enumerates the display colors available on top-level nodes.
type Color string

const (
	ColorWhite    Color = "DEFAULT"
	ColorRed      Color = "RED"
	ColorOrange   Color = "ORANGE"
	ColorYellow   Color = "YELLOW"
	ColorGreen    Color = "GREEN"
	ColorTeal     Color = "TEAL"
	ColorBlue     Color = "BLUE"
	ColorDarkBlue Color = "CERULEAN"
	ColorPurple   Color = "PURPLE"
	ColorPink     Color = "PINK"
	ColorBrown    Color = "BROWN"
	ColorGray     Color = "GRAY"
)

// CategoryValue enumerates topic categories recognized by the category annotation.
type CategoryValue string

const (
	CategoryBooks  CategoryValue = "BOOKS"
	CategoryFood   CategoryValue = "FOOD"
	CategoryMovies CategoryValue = "MOVIES"
	CategoryMusic  CategoryValue = "MUSIC"
	CategoryPlaces CategoryValue = "PLACES"
	CategoryQuotes CategoryValue = "QUOTES"
	CategoryTravel CategoryValue = "TRAVEL"
	CategoryTV     CategoryValue = "TV"
)

// Placement selects where new list items are inserted.
type Placement string

const (
	PlacementTop    Placement = "TOP"
	PlacementBottom Placement = "BOTTOM"
)

// GraveyardState is the visibility of a list's checked-item graveyard.
type GraveyardState string

const (
	GraveyardExpanded  GraveyardState = "EXPANDED"
	GraveyardCollapsed GraveyardState = "COLLAPSED"
)

// CheckedPolicy controls what happens to checked list items.
type CheckedPolicy string

const (
	CheckedPolicyDefault   CheckedPolicy = "DEFAULT"
	CheckedPolicyGraveyard CheckedPolicy = "GRAVEYARD"
)

// CollabState is the access state recorded for a collaborator email. The
// first two values are server-granted roles, the last two are pending
// share requests that have not been acknowledged yet.
type CollabState string

const (
	RoleOwner   CollabState = "O"
	RoleWriter  CollabState = "W"
	ShareAdd    CollabState = "WR"
	ShareRemove CollabState = "RM"
)

// pending reports whether the state is an unacknowledged share request.
func (s CollabState) pending() bool {
	return s == ShareAdd || s == ShareRemove
}

const (
	wireKindNode       = "notes#node"
	wireKindBlob       = "notes#blob"
	wireKindTimestamps = "notes#timestamps"
	wireKindAnnotation = "notes#annotationsGroup"
)

func validKind(value string) bool {
	switch Kind(value) {
	case KindNote, KindList, KindListItem, KindBlob:
		return true
	}
	return false
}

func validBlobKind(value string) bool {
	switch BlobKind(value) {
	case BlobAudio, BlobImage, BlobDrawing:
		return true
	}
	return false
}
