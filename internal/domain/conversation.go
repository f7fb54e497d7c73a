// Package domain contains core domain types for the factory assistant.
package domain

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleUser marks a turn written by the human operator.
	RoleUser Role = "user"
	// RoleAssistant marks a turn produced by the assistant.
	RoleAssistant Role = "assistant"
)

// Turn is a single conversation entry. Turns are append-only: once recorded
// they are never mutated, only evicted when the memory window trims.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// SQLExecuted holds the query behind a data answer, for audit logs only.
	// It is never rendered to the end user.
	SQLExecuted string `json:"sql_executed,omitempty"`
}

// ChatMessage is the provider-agnostic message shape sent to the language
// model.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
