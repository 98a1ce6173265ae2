// Package history converts a sequence of history entries to and from the
// string payload stored in the session state record.
//
// The entry type is opaque: anything encoding/json can round-trip works.
// Both directions fall back to an empty sequence instead of failing.
package history

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EmptyBlob is the payload of an empty history.
const EmptyBlob = "[]"

// Marshal encodes entries as a compact JSON array. On failure it returns
// EmptyBlob together with the error.
func Marshal[E any](entries []E) (string, error) {
	if len(entries) == 0 {
		return EmptyBlob, nil
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return EmptyBlob, fmt.Errorf("failed to marshal history: %w", err)
	}
	return string(data), nil
}

// Parse decodes a history payload. The returned slice is never nil; a blank
// or malformed payload yields an empty slice, the latter with an error.
func Parse[E any](blob string) ([]E, error) {
	if strings.TrimSpace(blob) == "" {
		return []E{}, nil
	}

	var entries []E
	if err := json.Unmarshal([]byte(blob), &entries); err != nil {
		return []E{}, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	if entries == nil {
		return []E{}, nil
	}
	return entries, nil
}

// Decode is Parse without the error.
func Decode[E any](blob string) []E {
	entries, _ := Parse[E](blob)
	return entries
}

// Tail returns the newest max entries. max <= 0 means no limit.
func Tail[E any](entries []E, max int) []E {
	if max <= 0 || len(entries) <= max {
		return entries
	}
	return entries[len(entries)-max:]
}
