package adapter

import (
	"context"
	"encoding/json"
	"time"

	cacheport "go-courier/internal/infrastructure/cache/port"
	chat "go-courier/internal/pkg/chat/application/domain"
	repository "go-courier/internal/pkg/chat/persistence/repository/port"
)

const profileCacheTTL = 5 * time.Minute

// CachedUserRepository layers a read-through profile cache over another
// UserRepository. Only FindByExternalID is cached: it sits on the message
// send hot path where the sender profile is attached to every fan-out.
// Cache failures degrade to the underlying repository, never to an error.
type CachedUserRepository struct {
	next  repository.UserRepository
	cache cacheport.Cache
}

func NewCachedUserRepository(next repository.UserRepository, cache cacheport.Cache) *CachedUserRepository {
	return &CachedUserRepository{next: next, cache: cache}
}

var _ repository.UserRepository = (*CachedUserRepository)(nil)

func profileKey(externalID string) string {
	return "user:profile:" + externalID
}

func (r *CachedUserRepository) FindByExternalID(ctx context.Context, externalID string) (*chat.User, error) {
	if r.cache != nil {
		// A miss, a transport error, or a corrupt entry all fall through to
		// the source of truth.
		if raw, err := r.cache.Get(ctx, profileKey(externalID)); err == nil {
			var u chat.User
			if json.Unmarshal([]byte(raw), &u) == nil {
				return &u, nil
			}
		}
	}

	u, err := r.next.FindByExternalID(ctx, externalID)
	if err != nil || u == nil {
		return u, err
	}

	if r.cache != nil {
		if raw, err := json.Marshal(u); err == nil {
			_ = r.cache.Set(ctx, profileKey(externalID), string(raw), profileCacheTTL)
		}
	}
	return u, nil
}

func (r *CachedUserRepository) SearchByEmail(ctx context.Context, email string, excludeExternalID string) ([]chat.User, error) {
	return r.next.SearchByEmail(ctx, email, excludeExternalID)
}

// Upsert writes through and invalidates the cached profile so stale display
// attributes are not attached to subsequent messages.
func (r *CachedUserRepository) Upsert(ctx context.Context, u chat.User) error {
	if err := r.next.Upsert(ctx, u); err != nil {
		return err
	}
	if r.cache != nil {
		_, _ = r.cache.Del(ctx, profileKey(u.ExternalID))
	}
	return nil
}
