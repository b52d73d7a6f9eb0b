package repository

import (
	"context"

	chat "go-courier/internal/pkg/chat/application/domain"
)

// ChatRepository defines persistence operations for conversations and messages.
// It is the authority for conversation/participant/message consistency; the
// messaging engine treats CreateMessage as a single transaction.
type ChatRepository interface {
	// GetConversation loads a conversation with its participants and their
	// user profiles. Returns (nil, nil) when the id is unknown.
	GetConversation(ctx context.Context, id string) (*chat.Conversation, error)

	// FindOrCreateConversation returns the conversation between the two users,
	// creating it if absent. Idempotent on the unordered pair.
	FindOrCreateConversation(ctx context.Context, userAID string, userBID string) (chat.Conversation, error)

	// CreateMessage persists a message and bumps the conversation's
	// last-activity timestamp atomically; both succeed or neither does.
	CreateMessage(ctx context.Context, conversationID string, senderID string, text string) (chat.Message, error)

	// ListMessages returns messages in ascending creation order with the
	// sender profile attached to each.
	ListMessages(ctx context.Context, conversationID string, limit int, offset int) ([]chat.Message, error)

	// ListConversations returns the user's conversations ordered by most
	// recent activity, each with the peer profile and last message.
	ListConversations(ctx context.Context, externalUserID string) ([]chat.ConversationSummary, error)
}
