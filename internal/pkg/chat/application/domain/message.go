package chat

import (
	"strings"
	"time"
)

// Message is an immutable log entry in a conversation. Ordering is by
// CreatedAt with storage insertion order breaking ties.
type Message struct {
	ID             string    `db:"id"`
	ConversationID string    `db:"conversation_id"`
	SenderID       string    `db:"sender_id"`
	Text           string    `db:"text"`
	CreatedAt      time.Time `db:"created_at"`

	// Sender carries the sender's profile for delivery to clients.
	// Populated on reads and before fan-out; not a persisted column.
	Sender *User
}

// NormalizeText trims the message body and rejects empty input.
func NormalizeText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyMessage
	}
	return trimmed, nil
}
