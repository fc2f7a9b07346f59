package token

import (
	"context"
	"errors"
	"time"

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

func (r *postgresRepo) Put(ctx context.Context, s Session) error {
	const q = `
INSERT INTO provider_sessions (session_id, account_uid, expires_at)
VALUES ($1, $2::uuid, $3)
ON CONFLICT (session_id) DO UPDATE
SET account_uid = EXCLUDED.account_uid,
    expires_at = EXCLUDED.expires_at,
    created_at = now()
`
	_, err := r.pool.Exec(ctx, q, s.SessionID, s.AccountUID, s.ExpiresAt)
	return err
}

// Get returns domain.ErrNotFound for unknown or expired sessions.
func (r *postgresRepo) Get(ctx context.Context, sessionID string) (*Session, error) {
	const q = `
SELECT session_id, account_uid::text, expires_at, created_at
FROM provider_sessions
WHERE session_id = $1 AND expires_at > now()
LIMIT 1
`
	var out Session
	if err := r.pool.QueryRow(ctx, q, sessionID).Scan(
		&out.SessionID,
		&out.AccountUID,
		&out.ExpiresAt,
		&out.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (r *postgresRepo) Delete(ctx context.Context, sessionID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM provider_sessions WHERE session_id = $1`, sessionID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM provider_sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
