package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"jewelry-storefront/internal/domain"
)

const selectColumns = `
SELECT id::text, items, totals, COALESCE(customer_uid, ''), customer_name, customer_email, customer_phone,
       shipping_address, status, notes, created_at, updated_at
FROM orders
`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger}
}

// Create writes the order and returns it with the generated id. Items and
// totals are stored as JSON so amounts keep their exact decimal text.
func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return nil, fmt.Errorf("order repo: encode items: %w", err)
	}
	totalsJSON, err := json.Marshal(o.Totals)
	if err != nil {
		return nil, fmt.Errorf("order repo: encode totals: %w", err)
	}
	addrJSON, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return nil, fmt.Errorf("order repo: encode address: %w", err)
	}

	const q = `
INSERT INTO orders (
    items, totals, customer_uid, customer_name, customer_email, customer_phone,
    shipping_address, status, notes, created_at, updated_at
) VALUES ($1::jsonb, $2::jsonb, NULLIF($3, ''), $4, $5, $6, $7::jsonb, $8, $9, $10, $11)
RETURNING id::text
`
	out := o
	err = r.pool.QueryRow(ctx, q,
		string(itemsJSON),
		string(totalsJSON),
		o.Customer.UID,
		o.Customer.Name,
		o.Customer.Email,
		o.Customer.Phone,
		string(addrJSON),
		string(o.Status),
		o.Notes,
		o.CreatedAt,
		o.UpdatedAt,
	).Scan(&out.ID)
	if err != nil {
		r.logger.Error().Err(err).Str("customer_email", o.Customer.Email).Msg("order repo: create")
		return nil, err
	}
	r.logger.Info().Str("order_id", out.ID).Int("items", len(o.Items)).Msg("order repo: created")
	return &out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	const q = selectColumns + `
WHERE id::text = $1
`
	o, err := scanOrder(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error().Err(err).Str("order_id", id).Msg("order repo: get")
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) ListByCustomer(ctx context.Context, uid string, limit int) ([]domain.Order, error) {
	const q = selectColumns + `
WHERE customer_uid = $1
ORDER BY created_at DESC
LIMIT $2
`
	rows, err := r.pool.Query(ctx, q, uid, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o                               domain.Order
		itemsJSON, totalsJSON, addrJSON []byte
		status                          string
	)
	err := row.Scan(
		&o.ID,
		&itemsJSON,
		&totalsJSON,
		&o.Customer.UID,
		&o.Customer.Name,
		&o.Customer.Email,
		&o.Customer.Phone,
		&addrJSON,
		&status,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("order repo: decode items: %w", err)
	}
	if err := json.Unmarshal(totalsJSON, &o.Totals); err != nil {
		return nil, fmt.Errorf("order repo: decode totals: %w", err)
	}
	if err := json.Unmarshal(addrJSON, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("order repo: decode address: %w", err)
	}
	o.Status = domain.OrderStatus(status)
	return &o, nil
}
