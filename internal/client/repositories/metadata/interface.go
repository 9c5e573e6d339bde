// Package metadata stores small key/value blobs in the local database.
// Each repository is scoped to a namespace so unrelated callers (the session,
// CLI preferences) can clear their own keys without touching each other's.
package metadata

import (
	"context"
)

// Repository is a namespaced key/value view of the metadata table.
type Repository interface {
	// Get returns nil, nil for a missing key.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// List returns every key of the namespace with the prefix stripped.
	List(ctx context.Context) (map[string][]byte, error)
	// Clear removes the namespace's keys only.
	Clear(ctx context.Context) error
}
