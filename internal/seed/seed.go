package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"jewelry-storefront/internal/domain"
	categoryrepo "jewelry-storefront/internal/repository/category"
	productrepo "jewelry-storefront/internal/repository/product"
	"jewelry-storefront/internal/service/catalog"
)

type productWriter interface {
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}

type categoryWriter interface {
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}

// Apply inserts the sample jewelry catalog for manual testing. It is
// idempotent: rows are upserted by slug.
func Apply(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	return Run(ctx, productrepo.NewPostgres(pool, logger), categoryrepo.NewPostgres(pool), logger)
}

func Run(ctx context.Context, products productWriter, categories categoryWriter, logger zerolog.Logger) error {
	for _, c := range catalog.SampleCategories() {
		if _, err := categories.Upsert(ctx, c); err != nil {
			return fmt.Errorf("upsert category %s: %w", c.Slug, err)
		}
	}
	for _, p := range catalog.SampleProducts() {
		if _, err := products.Upsert(ctx, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Slug, err)
		}
	}
	logger.Info().
		Int("categories", len(catalog.SampleCategories())).
		Int("products", len(catalog.SampleProducts())).
		Msg("seed: catalog applied")
	return nil
}
