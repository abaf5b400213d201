// Package server defines the chat message records exchanged with clients and
// utility helpers that are reused across client and hub logic.
package server

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Kind tags a Message as a chat line or a system notice.
type Kind string

const (
	// KindChat is a message typed by a connected user.
	KindChat Kind = "CHAT"
	// KindSystem is a notice generated by the relay itself.
	KindSystem Kind = "SYSTEM"
)

// Message is the record stored in history and sent over the wire. SYSTEM
// messages carry no user and no timestamp. Build values with NewChatMessage or
// NewSystemMessage and treat them as immutable afterwards.
type Message struct {
	Kind      Kind   `json:"type"`
	User      string `json:"user,omitempty"`
	Text      string `json:"text"`
	Timestamp int64  `json:"ts,omitempty"`
}

// NewChatMessage builds a CHAT message stamped with at in epoch milliseconds.
func NewChatMessage(user, text string, at time.Time) Message {
	return Message{
		Kind:      KindChat,
		User:      user,
		Text:      text,
		Timestamp: at.UnixMilli(),
	}
}

// NewSystemMessage builds a SYSTEM message.
func NewSystemMessage(text string) Message {
	return Message{Kind: KindSystem, Text: text}
}

// greeting is the SYSTEM message sent to a client right after it connects.
func greeting(alias string) Message {
	return NewSystemMessage(fmt.Sprintf("You are **%s**", alias))
}

// Encode renders the message as a single JSON wire frame.
func (m Message) Encode() ([]byte, error) {
	if m.Kind == KindSystem {
		// User and timestamp never travel with system notices.
		return json.Marshal(struct {
			Kind Kind   `json:"type"`
			Text string `json:"text"`
		}{m.Kind, m.Text})
	}
	return json.Marshal(m)
}

// normalizeText trims surrounding whitespace from a raw inbound frame and
// reports whether anything is left to broadcast.
func normalizeText(raw []byte) (string, bool) {
	text := strings.TrimSpace(string(raw))
	return text, text != ""
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
