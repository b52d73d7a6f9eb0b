package chat

import "time"

// Conversation represents a 1:1 thread between exactly two users.
// UpdatedAt is the last-activity watermark and advances whenever a
// message is persisted into the conversation.
//
// Notes:
//   - The aggregate is intentionally minimal and in-memory; repositories
//     hydrate Participants before membership checks are invoked.
//   - A conversation is unique per unordered user pair; the storage layer
//     enforces this, so find-or-create is idempotent even under races.
type Conversation struct {
	ID           string    `db:"id"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	Participants []User
}

// HasParticipant tells whether the user with the given external identity
// belongs to this conversation.
func (c *Conversation) HasParticipant(externalID string) bool {
	if c == nil {
		return false
	}
	for _, p := range c.Participants {
		if p.ExternalID == externalID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the participant that is not the given user,
// or nil if the conversation is not hydrated or has no other member.
func (c *Conversation) OtherParticipant(externalID string) *User {
	if c == nil {
		return nil
	}
	for i := range c.Participants {
		if c.Participants[i].ExternalID != externalID {
			return &c.Participants[i]
		}
	}
	return nil
}

// ConversationSummary is the list-view projection of a conversation:
// the peer's profile plus the most recent message, if any.
type ConversationSummary struct {
	ChatID      string
	UpdatedAt   time.Time
	OtherUser   User
	LastMessage *Message
}
