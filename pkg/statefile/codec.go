package statefile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Status classifies the outcome of decoding a state file.
type Status int

const (
	// StatusOK means the file parsed cleanly at a valid version.
	StatusOK Status = iota
	// StatusMigrated means the file parsed but its version was missing or
	// non-positive and has been coerced to CurrentVersion.
	StatusMigrated
	// StatusMissing means there was no file.
	StatusMissing
	// StatusEmpty means the file was empty or whitespace.
	StatusEmpty
	// StatusUnreadable means the file could not be read.
	StatusUnreadable
	// StatusCorrupt means the content was not a valid state document.
	StatusCorrupt
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusMigrated:
		return "migrated"
	case StatusMissing:
		return "missing"
	case StatusEmpty:
		return "empty"
	case StatusUnreadable:
		return "unreadable"
	case StatusCorrupt:
		return "corrupt"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Fallback reports whether the status means the stored content was discarded
// in favour of Default().
func (s Status) Fallback() bool {
	return s != StatusOK && s != StatusMigrated
}

// Result is the outcome of Decode. Record is always usable.
type Result struct {
	Record Record
	Status Status
	Err    error
}

// Fallback builds a Result carrying Default() for the given status.
func Fallback(status Status, err error) Result {
	return Result{Record: Default(), Status: status, Err: err}
}

// wireRecord mirrors the on-disk field names. Absent values are null.
// Version is a json.Number so integral literals such as 1.0 are accepted.
type wireRecord struct {
	Version        *json.Number `json:"Version"`
	SessionID      *string      `json:"SessionId"`
	MessagesJSON   *string      `json:"MessagesJson"`
	LastUpdatedUTC *string      `json:"LastUpdatedUtc"`
}

// Decode parses a state file. It never fails: anything that is not a valid
// state document decodes to Default() with a non-OK status.
func Decode(data []byte) Result {
	if len(bytes.TrimSpace(data)) == 0 {
		return Fallback(StatusEmpty, nil)
	}

	if err := validateSchema(data); err != nil {
		return Fallback(StatusCorrupt, err)
	}

	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return Fallback(StatusCorrupt, fmt.Errorf("failed to unmarshal state file: %w", err))
	}

	version, err := parseVersion(w.Version)
	if err != nil {
		return Fallback(StatusCorrupt, err)
	}

	rec := Record{
		SessionID:    deref(w.SessionID),
		MessagesJSON: deref(w.MessagesJSON),
	}
	if w.LastUpdatedUTC != nil {
		// An unparseable timestamp leaves LastUpdated zero.
		if ts, err := time.Parse(time.RFC3339Nano, *w.LastUpdatedUTC); err == nil {
			rec.LastUpdated = ts.UTC()
		}
	}

	status := StatusOK
	if version <= 0 {
		rec.Version = CurrentVersion
		status = StatusMigrated
	} else {
		rec.Version = version
	}

	return Result{Record: rec, Status: status}
}

// Encode serializes the whole record as indented JSON. A non-positive
// version is written as CurrentVersion.
func Encode(rec Record) ([]byte, error) {
	version := rec.Version
	if version <= 0 {
		version = CurrentVersion
	}

	n := json.Number(strconv.Itoa(version))
	w := wireRecord{
		Version:      &n,
		SessionID:    ref(rec.SessionID),
		MessagesJSON: ref(rec.MessagesJSON),
	}
	if !rec.LastUpdated.IsZero() {
		ts := rec.LastUpdated.UTC().Format(time.RFC3339Nano)
		w.LastUpdatedUTC = &ts
	}

	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state record: %w", err)
	}
	return data, nil
}

// parseVersion converts the version literal to an int. A missing version is
// 0. Integral floats are truncated; fractions and out of range values fail.
func parseVersion(n *json.Number) (int, error) {
	if n == nil {
		return 0, nil
	}
	if v, err := n.Int64(); err == nil && v >= math.MinInt32 && v <= math.MaxInt32 {
		return int(v), nil
	}

	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("invalid state file version %q: %w", n.String(), err)
	}
	if f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("invalid state file version %q", n.String())
	}
	return int(f), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ref(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
