package usecase

import (
	"context"
	"fmt"
	"strings"

	chat "go-courier/internal/pkg/chat/application/domain"
	repository "go-courier/internal/pkg/chat/persistence/repository/port"
)

// SearchUsersInput wraps an email fragment to search for; the caller is
// always excluded from the results.
type SearchUsersInput struct {
	Email            string
	CallerExternalID string
}

// SearchUsersUseCase finds users by email substring for starting new chats.
type SearchUsersUseCase struct {
	Users repository.UserRepository
}

func NewSearchUsersUseCase(users repository.UserRepository) *SearchUsersUseCase {
	return &SearchUsersUseCase{Users: users}
}

func (uc *SearchUsersUseCase) Execute(ctx context.Context, in SearchUsersInput) ([]chat.User, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, fmt.Errorf("email query is required")
	}

	users, err := uc.Users.SearchByEmail(ctx, email, in.CallerExternalID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return users, nil
}
