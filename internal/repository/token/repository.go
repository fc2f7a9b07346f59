package token

import (
	"context"
	"time"
)

// Session binds a browser session to a signed-in provider account.
type Session struct {
	SessionID  string
	AccountUID string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

type Repository interface {
	// Put creates or replaces the session binding.
	Put(ctx context.Context, s Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
