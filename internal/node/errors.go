package node

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMergeConflict is returned when a delta carries a server-side
// conflict marker. No local resolution is attempted; the caller must
// surface the conflict and resync.
var ErrMergeConflict = errors.New("node: merge conflict reported by server")

// ParseError reports a malformed delta. It retains the offending raw
// payload for diagnostics.
type ParseError struct {
	Entity string
	Raw    json.RawMessage
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("node: parse error in %s", e.Entity)
	}
	return fmt.Sprintf("node: parse error in %s: %v", e.Entity, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func errMissingField(name string) error {
	return fmt.Errorf("missing field %q", name)
}

func parseError(entity string, raw any, cause error) *ParseError {
	encoded, err := json.Marshal(raw)
	if err != nil {
		encoded = nil
	}
	return &ParseError{Entity: entity, Raw: encoded, Err: cause}
}
