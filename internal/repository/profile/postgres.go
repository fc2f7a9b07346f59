package profile

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jewelry-storefront/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Get(ctx context.Context, uid string) (*domain.Identity, error) {
	const q = `
SELECT uid, email, name, phone, role, created_at
FROM users
WHERE uid = $1
`
	return scanIdentity(r.pool.QueryRow(ctx, q, uid))
}

// Upsert keeps the first profile written for a uid; concurrent first
// sign-ins both observe the same row.
func (r *postgresRepo) Upsert(ctx context.Context, id domain.Identity) (*domain.Identity, error) {
	const q = `
INSERT INTO users (uid, email, name, phone, role, created_at)
VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()))
ON CONFLICT (uid) DO UPDATE SET uid = users.uid
RETURNING uid, email, name, phone, role, created_at
`
	role := id.Role
	if role == "" {
		role = domain.RoleCustomer
	}
	var created any
	if !id.CreatedAt.IsZero() {
		created = id.CreatedAt
	}
	return scanIdentity(r.pool.QueryRow(ctx, q, id.UID, id.Email, id.Name, id.Phone, string(role), created))
}

func scanIdentity(row pgx.Row) (*domain.Identity, error) {
	var (
		out  domain.Identity
		role string
	)
	if err := row.Scan(&out.UID, &out.Email, &out.Name, &out.Phone, &role, &out.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	out.Role = domain.Role(role)
	return &out, nil
}
