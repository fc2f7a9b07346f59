package identity

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"jewelry-storefront/internal/apperr"
	"jewelry-storefront/internal/domain"
	"jewelry-storefront/internal/notice"
	"jewelry-storefront/internal/storage"
)

const (
	keyPrefix    = "identity"
	applyTimeout = 5 * time.Second

	defaultRecheckInterval = 15 * time.Minute

	msgSignedIn     = "Welcome back!"
	msgSignedUp     = "Account created successfully!"
	msgFederated    = "Welcome!"
	msgSignedOut    = "Signed out successfully"
	msgSignInFailed = "Failed to sign in"
	msgSignUpFailed = "Failed to create account"
	msgFederatedErr = "Failed to sign in with Google"
	msgSignOutErr   = "Failed to sign out"
)

// Store mirrors the provider session of every browser session as a
// storefront Identity. Identities are written only by the subscription
// goroutine and by Logout.
type Store struct {
	provider  Provider
	profiles  ProfileRepository
	snapshots storage.Store
	notifier  notice.Notifier
	logger    zerolog.Logger
	now       func() time.Time
	recheck   time.Duration

	initMu      sync.Mutex
	initialized bool
	unsubscribe func()
	done        chan struct{}

	mu         sync.RWMutex
	identities map[string]domain.Identity
	sessions   map[string]*sessionState
}

// sessionState tracks when the provider last reported on a session and when
// the session was last read.
type sessionState struct {
	checkedAt time.Time
	lastSeen  time.Time
}

type Option func(*Store)

// WithRecheckInterval sets how long a session's identity is trusted before
// the provider is asked again.
func WithRecheckInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.recheck = d
		}
	}
}

func NewStore(provider Provider, profiles ProfileRepository, snapshots storage.Store, notifier notice.Notifier, logger zerolog.Logger, opts ...Option) *Store {
	if notifier == nil {
		notifier = notice.Discard{}
	}
	s := &Store{
		provider:   provider,
		profiles:   profiles,
		snapshots:  snapshots,
		notifier:   notifier,
		logger:     logger,
		now:        time.Now,
		recheck:    defaultRecheckInterval,
		identities: make(map[string]domain.Identity),
		sessions:   make(map[string]*sessionState),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize subscribes to provider session changes. Calling it again is a
// no-op.
func (s *Store) Initialize(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.initialized {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	ch, unsubscribe := s.provider.Subscribe()
	s.unsubscribe = unsubscribe
	s.done = make(chan struct{})
	s.initialized = true
	go s.run(ch)
	return nil
}

// Close unsubscribes and waits for the subscription goroutine to stop.
func (s *Store) Close() {
	s.initMu.Lock()
	unsubscribe, done := s.unsubscribe, s.done
	s.unsubscribe = nil
	s.initMu.Unlock()
	if unsubscribe == nil {
		return
	}
	unsubscribe()
	<-done
}

func (s *Store) run(ch <-chan Notification) {
	defer close(s.done)
	for n := range ch {
		ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
		s.apply(ctx, n)
		cancel()
		n.Ack()
	}
}

func (s *Store) apply(ctx context.Context, n Notification) {
	if n.User == nil {
		s.clear(ctx, n.SessionID)
		return
	}

	profile, err := s.profiles.Get(ctx, n.User.UID)
	if errors.Is(err, domain.ErrNotFound) {
		profile, err = s.profiles.Upsert(ctx, domain.Identity{
			UID:       n.User.UID,
			Email:     n.User.Email,
			Name:      n.User.DisplayName,
			Role:      domain.RoleCustomer,
			CreatedAt: s.now().UTC(),
		})
	}
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", n.SessionID).Str("uid", n.User.UID).Msg("identity: load profile failed")
		s.clear(ctx, n.SessionID)
		return
	}

	id := *profile
	id.Email = n.User.Email
	if id.Role == "" {
		id.Role = domain.RoleCustomer
	}
	s.set(ctx, n.SessionID, id)
}

func (s *Store) set(ctx context.Context, sessionID string, id domain.Identity) {
	s.mu.Lock()
	s.identities[sessionID] = id
	s.checkedLocked(sessionID)
	s.mu.Unlock()

	raw, err := json.Marshal(id)
	if err != nil {
		s.logger.Error().Err(err).Msg("identity: encode snapshot")
		return
	}
	if err := s.snapshots.Put(ctx, storage.Key(keyPrefix, sessionID), raw); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("identity: persist snapshot failed")
	}
}

func (s *Store) clear(ctx context.Context, sessionID string) {
	s.mu.Lock()
	delete(s.identities, sessionID)
	s.checkedLocked(sessionID)
	s.mu.Unlock()

	if err := s.snapshots.Delete(ctx, storage.Key(keyPrefix, sessionID)); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("identity: delete snapshot failed")
	}
}

func (s *Store) checkedLocked(sessionID string) {
	now := s.now()
	st, ok := s.sessions[sessionID]
	if !ok {
		st = &sessionState{lastSeen: now}
		s.sessions[sessionID] = st
	}
	st.checkedAt = now
}

func (s *Store) SignIn(ctx context.Context, sessionID, email, password string) error {
	if err := s.provider.SignIn(ctx, sessionID, email, password); err != nil {
		s.notifier.Error(sessionID, failureMessage(err, msgSignInFailed))
		return err
	}
	s.notifier.Success(sessionID, msgSignedIn)
	return nil
}

// SignUp creates the provider account and writes the named profile.
func (s *Store) SignUp(ctx context.Context, sessionID, email, password, name string) error {
	if err := s.provider.SignUp(ctx, sessionID, email, password, name); err != nil {
		s.notifier.Error(sessionID, failureMessage(err, msgSignUpFailed))
		return err
	}
	s.notifier.Success(sessionID, msgSignedUp)
	return nil
}

func (s *Store) SignInWithGoogle(ctx context.Context, sessionID, idToken string) error {
	if err := s.provider.SignInFederated(ctx, sessionID, idToken); err != nil {
		s.notifier.Error(sessionID, failureMessage(err, msgFederatedErr))
		return err
	}
	s.notifier.Success(sessionID, msgFederated)
	return nil
}

func (s *Store) Logout(ctx context.Context, sessionID string) error {
	if err := s.provider.SignOut(ctx, sessionID); err != nil {
		s.notifier.Error(sessionID, msgSignOutErr)
		return err
	}
	s.clear(ctx, sessionID)
	s.notifier.Success(sessionID, msgSignedOut)
	return nil
}

// Current returns a copy of the session's identity. The first call for a
// session restores the persisted snapshot; the provider is asked to replay
// the session state then and again once the recheck interval has passed, so
// an expired provider session signs the shopper out.
func (s *Store) Current(ctx context.Context, sessionID string) (*domain.Identity, bool) {
	now := s.now()
	s.mu.Lock()
	st, known := s.sessions[sessionID]
	due := !known
	if known {
		st.lastSeen = now
		due = now.Sub(st.checkedAt) >= s.recheck
	}
	s.mu.Unlock()

	if !known {
		restored := s.restore(ctx, sessionID)
		s.mu.Lock()
		if _, ok := s.sessions[sessionID]; !ok {
			if restored != nil {
				s.identities[sessionID] = *restored
			}
			s.sessions[sessionID] = &sessionState{lastSeen: now}
		}
		s.mu.Unlock()
	}
	if due {
		if err := s.provider.Refresh(ctx, sessionID); err != nil {
			s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("identity: refresh session failed")
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.identities[sessionID]
	if !ok {
		return nil, false
	}
	return &id, true
}

// EvictIdle drops the in-memory state of sessions not read since before
// cutoff and returns how many were dropped. Snapshots are kept, so the next
// Current restores them.
func (s *Store) EvictIdle(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, st := range s.sessions {
		if st.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			delete(s.identities, id)
			n++
		}
	}
	return n
}

// restore reads the persisted snapshot of a session, if any.
func (s *Store) restore(ctx context.Context, sessionID string) *domain.Identity {
	raw, err := s.snapshots.Get(ctx, storage.Key(keyPrefix, sessionID))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("identity: restore snapshot failed")
		}
		return nil
	}
	var id domain.Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("identity: decode snapshot failed")
		return nil
	}
	return &id
}

// failureMessage surfaces client-caused failures as-is and hides the rest
// behind the generic message.
func failureMessage(err error, fallback string) string {
	if typed := apperr.As(err); typed != nil {
		switch typed.Code() {
		case apperr.CodeValidation, apperr.CodeUnauthorized, apperr.CodeConflict:
			if msg := strings.TrimSpace(typed.Message()); msg != "" {
				return msg
			}
		}
	}
	return fallback
}
