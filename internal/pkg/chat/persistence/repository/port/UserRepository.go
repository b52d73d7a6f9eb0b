package repository

import (
	"context"

	chat "go-courier/internal/pkg/chat/application/domain"
)

// UserRepository defines persistence operations for user profiles.
type UserRepository interface {
	// FindByExternalID resolves the identity-provider subject to the local
	// user record. Returns (nil, nil) when no such user exists.
	FindByExternalID(ctx context.Context, externalID string) (*chat.User, error)

	// SearchByEmail performs a case-insensitive substring match on email,
	// excluding the user with the given external id (the caller).
	SearchByEmail(ctx context.Context, email string, excludeExternalID string) ([]chat.User, error)

	// Upsert creates or updates the user keyed by ExternalID.
	Upsert(ctx context.Context, u chat.User) error
}
