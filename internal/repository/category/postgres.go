package category

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"jewelry-storefront/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) ListActive(ctx context.Context) ([]domain.Category, error) {
	const q = `
SELECT id::text, name, slug, image, sort_order, active, created_at
FROM categories
WHERE active = TRUE
ORDER BY sort_order ASC, name ASC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Image, &c.Order, &c.Active, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	const q = `
INSERT INTO categories (name, slug, image, sort_order, active)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (slug) DO UPDATE
SET name = EXCLUDED.name,
    image = COALESCE(NULLIF(EXCLUDED.image, ''), categories.image),
    sort_order = EXCLUDED.sort_order,
    active = EXCLUDED.active
RETURNING id::text, image, created_at
`
	out := c
	err := r.pool.QueryRow(ctx, q, c.Name, c.Slug, c.Image, c.Order, c.Active).
		Scan(&out.ID, &out.Image, &out.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
