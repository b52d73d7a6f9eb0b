package adapter

import (
	"context"
	"testing"
	"time"

	cacheport "go-courier/internal/infrastructure/cache/port"
	chat "go-courier/internal/pkg/chat/application/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	entries map[string]string
	getErr  error
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]string)}
}

func (c *memCache) Get(ctx context.Context, key string) (string, error) {
	if c.getErr != nil {
		return "", c.getErr
	}
	v, ok := c.entries[key]
	if !ok {
		return "", cacheport.ErrMiss
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.entries[key] = value
	return nil
}

func (c *memCache) Del(ctx context.Context, keys ...string) (int64, error) {
	var n int64
	for _, k := range keys {
		if _, ok := c.entries[k]; ok {
			delete(c.entries, k)
			n++
		}
	}
	return n, nil
}

func (c *memCache) Ping(ctx context.Context) error { return nil }
func (c *memCache) Close() error                   { return nil }

type countingUserRepo struct {
	users map[string]*chat.User
	finds int
}

func (r *countingUserRepo) FindByExternalID(ctx context.Context, externalID string) (*chat.User, error) {
	r.finds++
	return r.users[externalID], nil
}

func (r *countingUserRepo) SearchByEmail(ctx context.Context, email, excludeExternalID string) ([]chat.User, error) {
	return nil, nil
}

func (r *countingUserRepo) Upsert(ctx context.Context, u chat.User) error {
	r.users[u.ExternalID] = &u
	return nil
}

func TestCachedFindHitsSourceOnce(t *testing.T) {
	next := &countingUserRepo{users: map[string]*chat.User{
		"ext-a": {ID: "u-a", ExternalID: "ext-a", Email: "a@example.com"},
	}}
	repo := NewCachedUserRepository(next, newMemCache())

	u1, err := repo.FindByExternalID(context.Background(), "ext-a")
	require.NoError(t, err)
	require.NotNil(t, u1)

	u2, err := repo.FindByExternalID(context.Background(), "ext-a")
	require.NoError(t, err)
	require.NotNil(t, u2)
	assert.Equal(t, u1.Email, u2.Email)

	assert.Equal(t, 1, next.finds)
}

func TestCachedFindUnknownUserNotCached(t *testing.T) {
	next := &countingUserRepo{users: map[string]*chat.User{}}
	cache := newMemCache()
	repo := NewCachedUserRepository(next, cache)

	u, err := repo.FindByExternalID(context.Background(), "ext-ghost")
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.Empty(t, cache.entries)
}

func TestCachedFindFallsBackOnCacheError(t *testing.T) {
	next := &countingUserRepo{users: map[string]*chat.User{
		"ext-a": {ID: "u-a", ExternalID: "ext-a"},
	}}
	cache := newMemCache()
	cache.getErr = assert.AnError
	repo := NewCachedUserRepository(next, cache)

	u, err := repo.FindByExternalID(context.Background(), "ext-a")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, 1, next.finds)
}

func TestUpsertInvalidatesProfile(t *testing.T) {
	next := &countingUserRepo{users: map[string]*chat.User{
		"ext-a": {ID: "u-a", ExternalID: "ext-a", Email: "old@example.com"},
	}}
	repo := NewCachedUserRepository(next, newMemCache())

	_, err := repo.FindByExternalID(context.Background(), "ext-a")
	require.NoError(t, err)

	require.NoError(t, repo.Upsert(context.Background(), chat.User{
		ID: "u-a", ExternalID: "ext-a", Email: "new@example.com",
	}))

	u, err := repo.FindByExternalID(context.Background(), "ext-a")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "new@example.com", u.Email)
}
