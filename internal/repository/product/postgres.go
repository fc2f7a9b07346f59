package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"jewelry-storefront/internal/domain"
)

const selectColumns = `
SELECT id::text, title, slug, description, price::text, images, categories, options, stock, featured, active, created_at, updated_at
FROM products
`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) List(ctx context.Context, q Query) ([]domain.Product, error) {
	sql, args := buildListQuery(q)
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("product repo: list")
		return nil, err
	}
	result, err := collect(rows)
	if err != nil {
		r.logger.Error().Err(err).Msg("product repo: list rows")
		return nil, err
	}
	r.logger.Debug().Int("count", len(result)).Int("offset", q.Offset).Msg("product repo: list")
	return result, nil
}

// buildListQuery renders the filtered, sorted page query and its arguments.
func buildListQuery(q Query) (string, []any) {
	var (
		where = []string{"active = TRUE"}
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(q.Categories) > 0 {
		where = append(where, "categories && "+arg(q.Categories)+"::text[]")
	}
	if q.MinPrice != nil {
		where = append(where, "price >= "+arg(q.MinPrice.String())+"::numeric")
	}
	if q.MaxPrice != nil {
		where = append(where, "price <= "+arg(q.MaxPrice.String())+"::numeric")
	}
	if term := strings.TrimSpace(q.Search); term != "" {
		p := arg("%" + escapeLike(term) + "%")
		where = append(where, fmt.Sprintf(
			"(title ILIKE %[1]s OR description ILIKE %[1]s OR EXISTS (SELECT 1 FROM unnest(categories) AS c WHERE c ILIKE %[1]s))", p))
	}

	var b strings.Builder
	b.WriteString(selectColumns)
	b.WriteString("WHERE ")
	b.WriteString(strings.Join(where, " AND "))
	b.WriteString("\nORDER BY ")
	b.WriteString(orderBy(q.Sort))
	if q.Limit > 0 {
		b.WriteString("\nLIMIT " + arg(q.Limit))
	}
	if q.Offset > 0 {
		b.WriteString(" OFFSET " + arg(q.Offset))
	}
	return b.String(), args
}

func orderBy(s Sort) string {
	switch s {
	case SortOldest:
		return "created_at ASC, id ASC"
	case SortPriceLow:
		return "price ASC, id ASC"
	case SortPriceHigh:
		return "price DESC, id ASC"
	case SortName:
		return "title ASC, id ASC"
	default:
		return "created_at DESC, id ASC"
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *postgresRepo) Featured(ctx context.Context, limit int) ([]domain.Product, error) {
	const q = selectColumns + `
WHERE active = TRUE AND featured = TRUE
ORDER BY created_at DESC, id ASC
LIMIT $1
`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		r.logger.Error().Err(err).Msg("product repo: featured")
		return nil, err
	}
	return collect(rows)
}

func (r *postgresRepo) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	const q = selectColumns + `
WHERE slug = $1 AND active = TRUE
`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("slug", slug).Msg("product repo: get by slug not found")
			return nil, domain.ErrNotFound
		}
		r.logger.Error().Err(err).Str("slug", slug).Msg("product repo: get by slug")
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	const q = selectColumns + `
WHERE id::text = $1 AND active = TRUE
`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error().Err(err).Str("id", id).Msg("product repo: get by id")
		return nil, err
	}
	return p, nil
}

// Upsert inserts or updates a product keyed by slug.
func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (title, slug, description, price, images, categories, options, stock, featured, active)
VALUES ($1, $2, $3, $4::numeric, $5, $6, $7::jsonb, $8, $9, $10)
ON CONFLICT (slug) DO UPDATE SET
    title = EXCLUDED.title,
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    images = EXCLUDED.images,
    categories = EXCLUDED.categories,
    options = EXCLUDED.options,
    stock = EXCLUDED.stock,
    featured = EXCLUDED.featured,
    active = EXCLUDED.active,
    updated_at = now()
RETURNING id::text, created_at, updated_at
`
	options, err := json.Marshal(nonNilOptions(p.Options))
	if err != nil {
		return nil, fmt.Errorf("product repo: encode options slug=%s: %w", p.Slug, err)
	}

	out := p
	out.Images = nonNil(p.Images)
	out.Categories = nonNil(p.Categories)
	err = r.pool.QueryRow(ctx, q,
		p.Title,
		p.Slug,
		p.Description,
		p.Price.String(),
		out.Images,
		out.Categories,
		string(options),
		p.Stock,
		p.Featured,
		p.Active,
	).Scan(&out.ID, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("slug", p.Slug).Msg("product repo: upsert")
		return nil, err
	}
	r.logger.Debug().Str("slug", out.Slug).Str("id", out.ID).Msg("product repo: upserted")
	return &out, nil
}

func collect(rows pgx.Rows) ([]domain.Product, error) {
	defer rows.Close()
	result := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p       domain.Product
		price   string
		options []byte
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Description, &price, &p.Images, &p.Categories, &options, &p.Stock, &p.Featured, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("product repo: parse price %q: %w", price, err)
	}
	p.Price = amount
	if len(options) > 0 {
		if err := json.Unmarshal(options, &p.Options); err != nil {
			return nil, fmt.Errorf("product repo: decode options: %w", err)
		}
	}
	return &p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilOptions(o []domain.ProductOption) []domain.ProductOption {
	if o == nil {
		return []domain.ProductOption{}
	}
	return o
}
