package account

import (
	"context"

	"jewelry-storefront/internal/domain"
)

// Repository persists provider credential records.
type Repository interface {
	Create(ctx context.Context, a domain.Account) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByID(ctx context.Context, uid string) (*domain.Account, error)
	GetByFederatedSubject(ctx context.Context, subject string) (*domain.Account, error)
	LinkFederatedSubject(ctx context.Context, uid, subject string) error
}
