package cache

import (
	"context"
	"time"
)

// Client is the shared cache layer fronting the public read APIs. The
// pipeline treats it as purely derived and disposable: every method is safe
// to repeat.
type Client interface {
	// Remember returns the cached value under key, computing and storing
	// it with the given ttl and tags on a miss.
	Remember(ctx context.Context, key string, ttl time.Duration, tags []string, compute func(context.Context) (any, error)) (any, error)
	Forget(ctx context.Context, key string) (bool, error)
	ForgetByTags(ctx context.Context, tags []string) error
	// ForgetByPattern evicts every key matching a wildcard pattern and
	// reports how many were removed. The most expensive path; routed
	// sparingly.
	ForgetByPattern(ctx context.Context, pattern string) (int, error)
}
