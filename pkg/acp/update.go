// Package acp holds the session update record exchanged with an agent over
// the Agent Client Protocol. Only the fields a client keeps in its history
// are modelled here; anything else rides along in Meta.
package acp

import (
	"encoding/json"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// UpdateKind is the discriminator of a session update.
type UpdateKind string

const (
	KindUserMessageChunk  UpdateKind = "user_message_chunk"
	KindAgentMessageChunk UpdateKind = "agent_message_chunk"
	KindAgentThoughtChunk UpdateKind = "agent_thought_chunk"
	KindToolCall          UpdateKind = "tool_call"
	KindToolCallUpdate    UpdateKind = "tool_call_update"
	KindPlan              UpdateKind = "plan"
)

var knownKinds = map[UpdateKind]bool{
	KindUserMessageChunk:  true,
	KindAgentMessageChunk: true,
	KindAgentThoughtChunk: true,
	KindToolCall:          true,
	KindToolCallUpdate:    true,
	KindPlan:              true,
}

// ContentBlock is a piece of displayable content.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// SessionUpdate is one entry of conversation history.
type SessionUpdate struct {
	ID         string          `json:"id,omitempty"`
	Kind       UpdateKind      `json:"sessionUpdate"`
	Content    *ContentBlock   `json:"content,omitempty"`
	ToolCallID string          `json:"toolCallId,omitempty"`
	Title      string          `json:"title,omitempty"`
	Status     string          `json:"status,omitempty"`
	Meta       json.RawMessage `json:"_meta,omitempty"`
}

// ParseKind validates a kind name.
func ParseKind(s string) (UpdateKind, error) {
	k := UpdateKind(s)
	if !knownKinds[k] {
		return "", fmt.Errorf("unknown session update kind: %q", s)
	}
	return k, nil
}

// NewTextUpdate creates a text update with a fresh id.
func NewTextUpdate(kind UpdateKind, text string) (SessionUpdate, error) {
	if !knownKinds[kind] {
		return SessionUpdate{}, fmt.Errorf("unknown session update kind: %q", kind)
	}

	id, err := gonanoid.New()
	if err != nil {
		return SessionUpdate{}, fmt.Errorf("failed to generate update id: %w", err)
	}

	return SessionUpdate{
		ID:      id,
		Kind:    kind,
		Content: &ContentBlock{Type: "text", Text: text},
	}, nil
}

// Validate checks that the update carries a known kind.
func (u SessionUpdate) Validate() error {
	if !knownKinds[u.Kind] {
		return fmt.Errorf("unknown session update kind: %q", u.Kind)
	}
	return nil
}

// Text returns the text content, if any.
func (u SessionUpdate) Text() string {
	if u.Content == nil {
		return ""
	}
	return u.Content.Text
}
