// Package storage is the key/value port behind per-session snapshots (cart
// contents, signed-in identity). Values are opaque byte blobs.
package storage

import (
	"context"
	"fmt"
	"strings"
)

// Store persists snapshots. Get returns domain.ErrNotFound for unknown keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Pinger is implemented by stores backed by a network service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Key joins parts into a namespaced key, e.g. Key("cart", "abc") = "cart:abc".
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Driver names accepted by configuration.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

func ValidateDriver(name string) error {
	switch strings.ToLower(name) {
	case DriverMemory, DriverRedis, DriverPostgres:
		return nil
	default:
		return fmt.Errorf("storage: unknown driver %q", name)
	}
}
