package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"jewelry-storefront/internal/storage"
)

var ErrInvalidToken = errors.New("invalid session token")

const defaultTTL = 30 * 24 * time.Hour

// Session is a guest browser session. ID keys the cart and identity state;
// Token is what the browser presents.
type Session struct {
	ID        string
	Token     string
	ExpiresAt time.Time
}

type Service struct {
	tokens *tokenManager
	ttl    time.Duration
}

func New(store storage.Store, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Service{tokens: newTokenManager(store, time.Now), ttl: ttl}
}

// Issue starts a new guest session.
func (s *Service) Issue(ctx context.Context) (Session, error) {
	id := uuid.NewString()
	token, expiresAt, err := s.tokens.Issue(ctx, id, s.ttl)
	if err != nil {
		return Session{}, err
	}
	return Session{ID: id, Token: token, ExpiresAt: expiresAt}, nil
}

// Lookup resolves a presented token, returning ErrInvalidToken for unknown
// or expired ones.
func (s *Service) Lookup(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrInvalidToken
	}
	meta, ok, err := s.tokens.Validate(ctx, token)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, ErrInvalidToken
	}
	return Session{ID: meta.SessionID, Token: token, ExpiresAt: meta.ExpiresAt}, nil
}

func (s *Service) TTL() time.Duration {
	return s.ttl
}
