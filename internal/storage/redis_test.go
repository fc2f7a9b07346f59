package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"jewelry-storefront/internal/domain"
)

type mockCmdable struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *mockCmdable) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	m.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestRedisNamespacesKeys(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	store := &Redis{store: mock, prefix: "storefront", ttl: time.Hour}

	if err := store.Put(ctx, "cart:s1", []byte("snapshot")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, ok := mock.data["storefront:cart:s1"]; !ok {
		t.Fatalf("expected namespaced key, got %v", mock.data)
	}
	if mock.ttls["storefront:cart:s1"] != time.Hour {
		t.Fatalf("expected ttl to be applied")
	}

	got, err := store.Get(ctx, "cart:s1")
	if err != nil || string(got) != "snapshot" {
		t.Fatalf("get = %q, %v", got, err)
	}

	if err := store.Delete(ctx, "cart:s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "cart:s1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := store.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
