package order

import (
	"context"

	"jewelry-storefront/internal/domain"
)

// Repository is append-only: orders are created by the storefront and only
// their status is changed, by the back office.
type Repository interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByCustomer(ctx context.Context, uid string, limit int) ([]domain.Order, error)
}
