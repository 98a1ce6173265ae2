package statefile

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		status  Status
		session string
		version int
	}{
		{"empty", "", StatusEmpty, "", CurrentVersion},
		{"whitespace", "  \n\t ", StatusEmpty, "", CurrentVersion},
		{"garbage", "not json at all", StatusCorrupt, "", CurrentVersion},
		{"truncated", `{"Version": 1, "SessionId": "ab`, StatusCorrupt, "", CurrentVersion},
		{"json array", `[1, 2, 3]`, StatusCorrupt, "", CurrentVersion},
		{"json null", `null`, StatusCorrupt, "", CurrentVersion},
		{"wrong field type", `{"Version": 1, "SessionId": 42}`, StatusCorrupt, "", CurrentVersion},
		{"fractional version", `{"Version": 1.5, "SessionId": "s"}`, StatusCorrupt, "", CurrentVersion},
		{"integral float version", `{"Version": 1.0, "SessionId": "s"}`, StatusOK, "s", 1},
		{"integral float newer version", `{"Version": 2.0, "SessionId": "s"}`, StatusOK, "s", 2},
		{"exponent version", `{"Version": 1e0, "SessionId": "s"}`, StatusOK, "s", 1},
		{"integral float zero version", `{"Version": 0.0, "SessionId": "s"}`, StatusMigrated, "s", CurrentVersion},
		{"version out of range", `{"Version": 1e40, "SessionId": "s"}`, StatusCorrupt, "", CurrentVersion},
		{"valid", `{"Version": 1, "SessionId": "sess-1"}`, StatusOK, "sess-1", 1},
		{"missing version", `{"SessionId": "sess-2"}`, StatusMigrated, "sess-2", CurrentVersion},
		{"null version", `{"Version": null, "SessionId": "sess-3"}`, StatusMigrated, "sess-3", CurrentVersion},
		{"zero version", `{"Version": 0, "SessionId": "sess-4"}`, StatusMigrated, "sess-4", CurrentVersion},
		{"negative version", `{"Version": -7, "SessionId": "sess-5"}`, StatusMigrated, "sess-5", CurrentVersion},
		{"newer version kept", `{"Version": 3, "SessionId": "sess-6"}`, StatusOK, "sess-6", 3},
		{"unknown keys allowed", `{"Version": 1, "SessionId": "sess-7", "Extra": {"a": 1}}`, StatusOK, "sess-7", 1},
		{"null session", `{"Version": 1, "SessionId": null}`, StatusOK, "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Decode([]byte(tt.input))

			assert.Equal(t, tt.status, res.Status)
			assert.Equal(t, tt.session, res.Record.SessionID)
			assert.Equal(t, tt.version, res.Record.Version)
			if tt.status == StatusCorrupt {
				assert.Error(t, res.Err)
			} else {
				assert.NoError(t, res.Err)
			}
		})
	}
}

func TestDecodePreservesFieldsOnMigration(t *testing.T) {
	input := `{
		"Version": 0,
		"SessionId": "sess-42",
		"MessagesJson": "[{\"k\":1}]",
		"LastUpdatedUtc": "2026-01-02T03:04:05.5Z"
	}`

	res := Decode([]byte(input))

	require.Equal(t, StatusMigrated, res.Status)
	assert.Equal(t, CurrentVersion, res.Record.Version)
	assert.Equal(t, "sess-42", res.Record.SessionID)
	assert.Equal(t, `[{"k":1}]`, res.Record.MessagesJSON)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 500000000, time.UTC), res.Record.LastUpdated)
}

func TestDecodeBadTimestamp(t *testing.T) {
	res := Decode([]byte(`{"Version": 1, "SessionId": "s", "LastUpdatedUtc": "yesterday"}`))

	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, "s", res.Record.SessionID)
	assert.True(t, res.Record.LastUpdated.IsZero())
}

func TestEncode(t *testing.T) {
	t.Run("absent fields are null", func(t *testing.T) {
		data, err := Encode(Default())
		require.NoError(t, err)

		var raw map[string]any
		require.NoError(t, json.Unmarshal(data, &raw))

		assert.Equal(t, float64(CurrentVersion), raw["Version"])
		assert.Contains(t, raw, "SessionId")
		assert.Nil(t, raw["SessionId"])
		assert.Nil(t, raw["MessagesJson"])
		assert.Nil(t, raw["LastUpdatedUtc"])
	})

	t.Run("non-positive version is never written", func(t *testing.T) {
		data, err := Encode(Record{Version: -1, SessionID: "s"})
		require.NoError(t, err)

		res := Decode(data)
		assert.Equal(t, StatusOK, res.Status)
		assert.Equal(t, CurrentVersion, res.Record.Version)
	})

	t.Run("version is written as an integer literal", func(t *testing.T) {
		data, err := Encode(Record{Version: 2})
		require.NoError(t, err)
		assert.Contains(t, string(data), `"Version": 2,`)
	})

	t.Run("whole record survives a round trip", func(t *testing.T) {
		rec := Record{
			Version:      CurrentVersion,
			SessionID:    "sess-9",
			MessagesJSON: `[{"sessionUpdate":"plan"}]`,
			LastUpdated:  time.Date(2026, 10, 18, 9, 15, 2, 123456789, time.UTC),
		}

		data, err := Encode(rec)
		require.NoError(t, err)

		res := Decode(data)
		assert.Equal(t, StatusOK, res.Status)
		assert.Equal(t, rec, res.Record)
	})

	t.Run("timestamps are written in UTC", func(t *testing.T) {
		loc := time.FixedZone("UTC+7", 7*60*60)
		rec := Record{Version: 1, LastUpdated: time.Date(2026, 10, 18, 16, 0, 0, 0, loc)}

		data, err := Encode(rec)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"2026-10-18T09:00:00Z"`)
	})
}

func TestStatus(t *testing.T) {
	assert.False(t, StatusOK.Fallback())
	assert.False(t, StatusMigrated.Fallback())
	assert.True(t, StatusMissing.Fallback())
	assert.True(t, StatusEmpty.Fallback())
	assert.True(t, StatusUnreadable.Fallback())
	assert.True(t, StatusCorrupt.Fallback())

	assert.Equal(t, "corrupt", StatusCorrupt.String())
	assert.Equal(t, "status(99)", Status(99).String())
}

func TestRecordHelpers(t *testing.T) {
	rec := Default()
	assert.False(t, rec.HasSession())
	assert.False(t, rec.HasHistory())

	rec.SessionID = "   "
	assert.False(t, rec.HasSession())

	rec.SessionID = "s"
	rec.MessagesJSON = "[]"
	assert.True(t, rec.HasSession())
	assert.True(t, rec.HasHistory())

	loc := time.FixedZone("X", 3600)
	rec.Touch(time.Date(2026, 1, 1, 1, 0, 0, 0, loc))
	assert.Equal(t, time.UTC, rec.LastUpdated.Location())
}
