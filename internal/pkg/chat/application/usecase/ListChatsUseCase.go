package usecase

import (
	"context"
	"fmt"

	chat "go-courier/internal/pkg/chat/application/domain"
	repository "go-courier/internal/pkg/chat/persistence/repository/port"
)

// ListChatsUseCase returns the caller's conversations, most recent first.
type ListChatsUseCase struct {
	Repo repository.ChatRepository
}

func NewListChatsUseCase(repo repository.ChatRepository) *ListChatsUseCase {
	return &ListChatsUseCase{Repo: repo}
}

func (uc *ListChatsUseCase) Execute(ctx context.Context, externalUserID string) ([]chat.ConversationSummary, error) {
	if externalUserID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	chats, err := uc.Repo.ListConversations(ctx, externalUserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return chats, nil
}
