package profile

import (
	"context"

	"jewelry-storefront/internal/domain"
)

// Repository stores storefront user profiles keyed by provider uid.
type Repository interface {
	Get(ctx context.Context, uid string) (*domain.Identity, error)
	// Upsert creates the profile or returns the existing one unchanged.
	Upsert(ctx context.Context, id domain.Identity) (*domain.Identity, error)
}
