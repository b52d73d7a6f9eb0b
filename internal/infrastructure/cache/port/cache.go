package port

import (
	"context"
	"time"
)

// Cache is the key-value cache contract exposed to the application. The
// service uses it for read-through caching of user profiles, so values are
// plain strings; serialization is the caller's concern. Implementations must
// be safe for concurrent use.
type Cache interface {
	// Get fetches the value stored at key. A missing key is reported as
	// ("", ErrMiss); any other non-nil error is a transport or backend error.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value at key. A zero or negative TTL persists the entry
	// until eviction.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Del removes the given keys and returns how many existed.
	Del(ctx context.Context, keys ...string) (int64, error)

	// Ping verifies connectivity with the backend.
	Ping(ctx context.Context) error

	Close() error
}

// ErrMiss signals a cache miss in a typed way so callers can tell misses
// apart from transport errors with errors.Is.
var ErrMiss = errMiss{}

type errMiss struct{}

func (e errMiss) Error() string { return "cache: miss" }
