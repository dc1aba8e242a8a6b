package node

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const labelIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewID generates a client-side node identifier: creation millis plus a
// random 64-bit suffix, matching the format the server echoes back.
func NewID() string {
	return fmt.Sprintf("%x.%016x", time.Now().UnixMilli(), rand.Uint64())
}

func newLabelID() string {
	suffix := make([]byte, 12)
	for i := range suffix {
		suffix[i] = labelIDAlphabet[rand.IntN(len(labelIDAlphabet))]
	}
	return fmt.Sprintf("tag.%s.%x", suffix, time.Now().UnixMilli())
}

// newSort picks a random ordering key. Independent random keys let new
// siblings insert in O(1) without renumbering the rest.
func newSort() int64 {
	return rand.Int64N(9000000000) + 1000000000
}

// ListSortStep is the gap callers leave between consecutive sort values
// when seeding a list.
const ListSortStep = sortStep

// NewListSort returns a fresh random sort key for seeding list items.
func NewListSort() int64 { return newSort() }
