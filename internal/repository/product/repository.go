package product

import (
	"context"

	"github.com/shopspring/decimal"

	"jewelry-storefront/internal/domain"
)

type Sort string

const (
	SortNewest    Sort = "newest"
	SortOldest    Sort = "oldest"
	SortPriceLow  Sort = "price-low"
	SortPriceHigh Sort = "price-high"
	SortName      Sort = "name"
)

// Query selects active products. Nil price bounds are not applied; an empty
// Categories list matches every category.
type Query struct {
	Categories []string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Search     string
	Sort       Sort
	Limit      int
	Offset     int
}

type Repository interface {
	List(ctx context.Context, q Query) ([]domain.Product, error)
	Featured(ctx context.Context, limit int) ([]domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}
