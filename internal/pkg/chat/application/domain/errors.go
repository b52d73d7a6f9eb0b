package chat

import "errors"

// Domain-level errors for chat behaviors
var (
	ErrNotParticipant       = errors.New("chat: user is not a participant in the conversation")
	ErrConversationNotFound = errors.New("chat: conversation not found")
	ErrUserNotFound         = errors.New("chat: user not found")
	ErrEmptyMessage         = errors.New("chat: message text is empty")
	ErrSelfConversation     = errors.New("chat: a conversation needs two distinct users")
)
