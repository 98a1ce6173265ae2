package statefile

import (
	"strings"
	"time"
)

// CurrentVersion is the schema version written by this build.
const CurrentVersion = 1

// Record is the single persisted unit of session state.
type Record struct {
	Version      int
	SessionID    string
	MessagesJSON string
	LastUpdated  time.Time
}

// Default returns an empty record stamped with the current version.
func Default() Record {
	return Record{Version: CurrentVersion}
}

// HasSession reports whether a session id is stored.
func (r Record) HasSession() bool {
	return strings.TrimSpace(r.SessionID) != ""
}

// HasHistory reports whether a history payload is stored.
func (r Record) HasHistory() bool {
	return strings.TrimSpace(r.MessagesJSON) != ""
}

// Touch stamps the record with the given time in UTC.
func (r *Record) Touch(now time.Time) {
	r.LastUpdated = now.UTC()
}
