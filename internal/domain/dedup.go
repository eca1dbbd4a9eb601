package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// DedupKey derives the deterministic job identifier for an event.
//
// The key is a SHA-256 over the event kind and its identity fields,
// separated by a unit separator so field boundaries cannot collide
// ("ab"+"c" hashes differently from "a"+"bc"). Timestamps are excluded
// on purpose: two events for the same business occurrence must map to
// the same key no matter when they were constructed.
func DedupKey(e EmailEvent) string {
	h := sha256.New()
	io.WriteString(h, string(e.Kind()))
	for _, f := range e.identity() {
		h.Write([]byte{0x1f})
		io.WriteString(h, f)
	}
	return hex.EncodeToString(h.Sum(nil))
}
