package account

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"jewelry-storefront/internal/domain"
)

const selectColumns = `
SELECT uid::text, email, password_hash, display_name, COALESCE(federated_subject, ''), created_at
FROM accounts
`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, a domain.Account) (*domain.Account, error) {
	const q = `
INSERT INTO accounts (email, password_hash, display_name, federated_subject)
VALUES ($1, $2, $3, NULLIF($4, ''))
RETURNING uid::text, email, password_hash, display_name, COALESCE(federated_subject, ''), created_at
`
	return r.scanAccount(r.pool.QueryRow(ctx, q,
		strings.ToLower(a.Email),
		a.PasswordHash,
		a.DisplayName,
		a.FederatedSubject,
	))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const q = selectColumns + `
WHERE lower(email) = lower($1)
LIMIT 1
`
	return r.scanAccount(r.pool.QueryRow(ctx, q, email))
}

func (r *postgresRepo) GetByID(ctx context.Context, uid string) (*domain.Account, error) {
	const q = selectColumns + `
WHERE uid::text = $1
LIMIT 1
`
	return r.scanAccount(r.pool.QueryRow(ctx, q, uid))
}

func (r *postgresRepo) GetByFederatedSubject(ctx context.Context, subject string) (*domain.Account, error) {
	const q = selectColumns + `
WHERE federated_subject = $1
LIMIT 1
`
	return r.scanAccount(r.pool.QueryRow(ctx, q, subject))
}

func (r *postgresRepo) LinkFederatedSubject(ctx context.Context, uid, subject string) error {
	const q = `UPDATE accounts SET federated_subject = $2 WHERE uid::text = $1`
	cmd, err := r.pool.Exec(ctx, q, uid, subject)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.UID, &a.Email, &a.PasswordHash, &a.DisplayName, &a.FederatedSubject, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error().Err(err).Msg("account repo: scan")
		return nil, err
	}
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
