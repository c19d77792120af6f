package models

import (
	"encoding/json"
	"time"
)

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is an immutable ledger entry. Seq is strictly increasing within
// a session and starts at 1.
type Message struct {
	ID        string
	SessionID string
	Seq       int
	Role      MessageRole
	Content   string
	Metadata  json.RawMessage
	CreatedAt time.Time
}
