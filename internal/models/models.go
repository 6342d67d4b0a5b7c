package models

import "time"

// Message roles stored in conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Segment is one retrievable slice of a source document.
type Segment struct {
	Content string
	Source  string
	Page    int // 1-based for paginated formats, 0 when the format has no pages
}

// ChatMessage is a single conversation turn.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Source is the citation view of a segment that grounded an answer.
type Source struct {
	Source  string `json:"source"`
	Page    int    `json:"page,omitempty"`
	Content string `json:"content"`
}
