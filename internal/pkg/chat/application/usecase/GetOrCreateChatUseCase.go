package usecase

import (
	"context"
	"fmt"

	chat "go-courier/internal/pkg/chat/application/domain"
	repository "go-courier/internal/pkg/chat/persistence/repository/port"
)

// GetOrCreateChatInput carries the two parties of a 1:1 conversation,
// identified by their external (identity provider) ids.
type GetOrCreateChatInput struct {
	CallerExternalID string
	OtherExternalID  string
}

// GetOrCreateChatUseCase opens the conversation between two users, returning
// the existing one when the pair already has a thread. Idempotence is backed
// by the storage-level uniqueness on the unordered pair.
type GetOrCreateChatUseCase struct {
	Chats repository.ChatRepository
	Users repository.UserRepository
}

func NewGetOrCreateChatUseCase(chats repository.ChatRepository, users repository.UserRepository) *GetOrCreateChatUseCase {
	return &GetOrCreateChatUseCase{Chats: chats, Users: users}
}

func (uc *GetOrCreateChatUseCase) Execute(ctx context.Context, in GetOrCreateChatInput) (*chat.Conversation, error) {
	if in.CallerExternalID == "" || in.OtherExternalID == "" {
		return nil, fmt.Errorf("caller and other user ids are required")
	}
	if in.CallerExternalID == in.OtherExternalID {
		return nil, chat.ErrSelfConversation
	}

	caller, err := uc.Users.FindByExternalID(ctx, in.CallerExternalID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	other, err := uc.Users.FindByExternalID(ctx, in.OtherExternalID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if caller == nil || other == nil {
		return nil, chat.ErrUserNotFound
	}

	conv, err := uc.Chats.FindOrCreateConversation(ctx, caller.ID, other.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &conv, nil
}
