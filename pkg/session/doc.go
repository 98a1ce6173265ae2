// Package session persists the agent session id and conversation history
// so a client can reconnect after a restart.
//
// Invariants:
// - Blank session ids are ignored by SetSessionID; nothing is loaded or saved.
// - SaveSnapshot with a blank session id keeps the stored id.
// - ClearSessionID keeps the stored history.
// - Every mutation stamps the record with the current UTC time.
// - No operation returns an error; a corrupt history loads as empty.
//
// Usage:
//
//	store := statestore.New(statestore.StaticDir(projectRoot))
//	p := session.New[acp.SessionUpdate](store)
//	p.SetSessionID("sess-42")
//	p.SaveSnapshot("sess-42", updates)
//	id := p.SessionID()
//	history := p.LoadMessages()
package session
