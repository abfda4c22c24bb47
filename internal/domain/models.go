// Package domain defines the core domain models for the chatbot.
package domain

import "time"

// Role discriminates the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry in a conversation. Within a session messages are
// append-only and ordered chronologically; the completion endpoint consumes
// them in that order.
type Message struct {
	Role       Role   `json:"role"`
	Content    string `json:"content"`
	ToolCallID string `json:"tool_call_id,omitempty"`
	ToolName   string `json:"tool_name,omitempty"`
}

// StoredMessage is a persisted message row with its storage identity.
type StoredMessage struct {
	MessageID string    `json:"message_id"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	SentAt    time.Time `json:"sent_at"`
}

// Session represents a conversation session owned by one user.
type Session struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// User is a registered owner identity. Every store operation is scoped by
// user id; unknown ids are rejected before any read or write happens.
type User struct {
	UserID       string    `json:"user_id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	UserType     string    `json:"user_type"` // "user" or "admin"
	CreatedAt    time.Time `json:"created_at"`
}

// EvidenceChunk is one retrievable unit of source content. ParentID plus
// ChunkIndex totally orders the chunks of one source document, which is what
// neighbor expansion walks over. Chunks are immutable after ingestion.
type EvidenceChunk struct {
	ID         string `json:"id"`
	ParentID   string `json:"parent_id"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"chunk"`
	FileName   string `json:"file_name"`
	PageNumber int    `json:"page_number"`
}
