package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jewelry-storefront/internal/domain"
	"jewelry-storefront/internal/storage"
)

const keyPrefix = "session"

type tokenMeta struct {
	SessionID string    `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type tokenManager struct {
	store storage.Store
	now   func() time.Time
}

func newTokenManager(store storage.Store, now func() time.Time) *tokenManager {
	return &tokenManager{store: store, now: now}
}

func (m *tokenManager) Issue(ctx context.Context, sessionID string, ttl time.Duration) (string, time.Time, error) {
	token, err := randomToken()
	if err != nil {
		return "", time.Time{}, err
	}
	meta := tokenMeta{SessionID: sessionID, ExpiresAt: m.now().Add(ttl).UTC()}
	raw, err := json.Marshal(meta)
	if err != nil {
		return "", time.Time{}, err
	}
	if err := m.store.Put(ctx, storage.Key(keyPrefix, token), raw); err != nil {
		return "", time.Time{}, fmt.Errorf("session: store token: %w", err)
	}
	return token, meta.ExpiresAt, nil
}

func (m *tokenManager) Validate(ctx context.Context, token string) (tokenMeta, bool, error) {
	key := storage.Key(keyPrefix, token)
	raw, err := m.store.Get(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return tokenMeta{}, false, nil
	}
	if err != nil {
		return tokenMeta{}, false, fmt.Errorf("session: load token: %w", err)
	}
	var meta tokenMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return tokenMeta{}, false, nil
	}
	if m.now().After(meta.ExpiresAt) {
		_ = m.store.Delete(ctx, key)
		return tokenMeta{}, false, nil
	}
	return meta, true, nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
