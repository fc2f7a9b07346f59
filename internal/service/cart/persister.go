package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"jewelry-storefront/internal/domain"
	"jewelry-storefront/internal/storage"
)

const keyPrefix = "cart"

type snapshotPersister struct {
	store storage.Store
}

// NewSnapshotPersister stores carts as JSON under "cart:<session>".
func NewSnapshotPersister(store storage.Store) Persister {
	return &snapshotPersister{store: store}
}

func (p *snapshotPersister) Save(ctx context.Context, sessionID string, c domain.Cart) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("cart: encode snapshot: %w", err)
	}
	return p.store.Put(ctx, storage.Key(keyPrefix, sessionID), raw)
}

func (p *snapshotPersister) Load(ctx context.Context, sessionID string) (*domain.Cart, error) {
	raw, err := p.store.Get(ctx, storage.Key(keyPrefix, sessionID))
	if err != nil {
		return nil, err
	}
	var c domain.Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("cart: decode snapshot: %w", err)
	}
	return &c, nil
}
