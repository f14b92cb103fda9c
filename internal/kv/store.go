// Package kv provides the string-keyed durable storage that session data
// is persisted in. Implementations must treat removal of a missing key as
// a no-op.
package kv

import "context"

type Store interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// MultiSet writes all pairs in one step where the backend allows it.
	MultiSet(ctx context.Context, values map[string]string) error
	Remove(ctx context.Context, key string) error
	MultiRemove(ctx context.Context, keys ...string) error
}
