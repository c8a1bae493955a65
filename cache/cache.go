// Package cache defines the invalidation contract used by the content
// services. Cached reads live outside this module; what the services need
// is a way to drop stale entries after mutations.
package cache

import "context"

// Invalidator clears a cache namespace. Implementations decide what a
// namespace is (a key prefix, a whole in-memory store).
type Invalidator interface {
	// Clear drops every entry in the namespace.
	Clear(ctx context.Context) error
}
