// Package statefile encodes and decodes the on-disk session state record.
//
// Decoding is total: missing, empty, unreadable or malformed input yields
// Default() together with a Status describing why. Callers never need to
// handle a parse error to obtain a usable record.
//
// On-disk format (version 1):
//
//	{
//	  "Version": 1,
//	  "SessionId": "sess-42",
//	  "MessagesJson": "[{\"sessionUpdate\":\"agent_message_chunk\"}]",
//	  "LastUpdatedUtc": "2026-10-18T09:15:02.123456789Z"
//	}
package statefile
