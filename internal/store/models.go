package store

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Chat struct {
	ID        string    `json:"id"` // UUID
	UserID    int64     `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Message struct {
	ID        string      `json:"id"` // UUID
	ChatID    string      `json:"chat_id"`
	Role      string      `json:"role"` // "user" or "assistant"
	Body      string      `json:"body"` // empty when the completion produced nothing
	Sources   []WebSource `json:"sources"`
	CreatedAt time.Time   `json:"created_at"`
}

// WebSource is a fetched document used as grounding context. Text is nil when
// no text could be extracted; such sources never reach a prompt or a persisted
// citation.
type WebSource struct {
	URL  string  `json:"url"`
	Text *string `json:"text"`
}
