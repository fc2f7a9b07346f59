package snapshot

import "context"

// Repository persists opaque per-session snapshots keyed by string.
// It satisfies storage.Store.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
