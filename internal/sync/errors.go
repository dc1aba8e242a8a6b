package sync

import "errors"

var (
	// ErrResyncRequired is returned when the server demands a full
	// resync. The caller must re-invoke Sync with resync set; the engine
	// never does this on its own.
	ErrResyncRequired = errors.New("sync: server requires a full resync")

	// ErrUpgradeRequired is returned when the server rejects the client's
	// protocol version. Fatal, never retried.
	ErrUpgradeRequired = errors.New("sync: client upgrade required")
)
