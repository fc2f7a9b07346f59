package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"jewelry-storefront/internal/apperr"
	"jewelry-storefront/internal/domain"
	tokenrepo "jewelry-storefront/internal/repository/token"
	"jewelry-storefront/internal/service/identity"
)

const (
	defaultSessionTTL = 48 * time.Hour
	subscriberBuffer  = 16
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = apperr.New(apperr.CodeUnauthorized, "invalid email or password")
	// ErrEmailTaken is returned when signing up with a registered email.
	ErrEmailTaken = apperr.New(apperr.CodeConflict, "an account with this email already exists")
)

type accountStore interface {
	Create(ctx context.Context, a domain.Account) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByID(ctx context.Context, uid string) (*domain.Account, error)
	GetByFederatedSubject(ctx context.Context, subject string) (*domain.Account, error)
	LinkFederatedSubject(ctx context.Context, uid, subject string) error
}

type sessionStore interface {
	Put(ctx context.Context, s tokenrepo.Session) error
	Get(ctx context.Context, sessionID string) (*tokenrepo.Session, error)
	Delete(ctx context.Context, sessionID string) error
}

type Config struct {
	SessionTTL        time.Duration
	FederatedIssuer   string
	FederatedAudience string
	FederatedSecret   string
}

// Service is the storefront's identity provider: email/password accounts,
// federated ID-token sign-in and per-browser-session sign-in state. Every
// state change is published to subscribers and acknowledged before the
// triggering call returns.
type Service struct {
	accounts    accountStore
	sessions    sessionStore
	cfg         Config
	validate    *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
	passwordMin int

	subMu  sync.RWMutex
	subs   map[int]chan identity.Notification
	nextID int
}

var _ identity.Provider = (*Service)(nil)

func New(accounts accountStore, sessions sessionStore, cfg Config, logger zerolog.Logger) *Service {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	return &Service{
		accounts:    accounts,
		sessions:    sessions,
		cfg:         cfg,
		validate:    validator.New(),
		logger:      logger,
		now:         time.Now,
		passwordMin: 8,
		subs:        make(map[int]chan identity.Notification),
	}
}

// Subscribe registers a listener for session changes. The returned func
// unsubscribes and closes the channel.
func (s *Service) Subscribe() (<-chan identity.Notification, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	ch := make(chan identity.Notification, subscriberBuffer)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// publish delivers the change to every subscriber and waits for each ack.
func (s *Service) publish(ctx context.Context, sessionID string, user *identity.ProviderUser) error {
	s.subMu.RLock()
	defer s.subMu.RUnlock()

	for _, ch := range s.subs {
		n, acked := identity.NewNotification(sessionID, user)
		select {
		case ch <- n:
		case <-ctx.Done():
			return ctx.Err()
		}
		select {
		case <-acked:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *Service) SignIn(ctx context.Context, sessionID, email, password string) error {
	email = normalizeEmail(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return ErrInvalidCredentials
	}

	acc, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return apperr.Wrap(apperr.CodeDependency, err, "identity provider unavailable")
	}
	if acc.PasswordHash == "" {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}

	return s.startSession(ctx, sessionID, acc)
}

func (s *Service) SignUp(ctx context.Context, sessionID, email, password, name string) error {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return apperr.New(apperr.CodeValidation, "a valid email is required").
			WithDetails(map[string]string{"email": "must be a valid email"})
	}
	if len(name) < 2 {
		return apperr.New(apperr.CodeValidation, "name must be at least 2 characters").
			WithDetails(map[string]string{"name": "must be at least 2 characters"})
	}
	password = strings.TrimSpace(password)
	if err := validatePassword(password, s.passwordMin); err != nil {
		return apperr.Wrap(apperr.CodeValidation, err, err.Error()).
			WithDetails(map[string]string{"password": err.Error()})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, err, "hash password")
	}

	acc, err := s.accounts.Create(ctx, domain.Account{
		Email:        email,
		PasswordHash: string(hashed),
		DisplayName:  name,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return ErrEmailTaken
		}
		return apperr.Wrap(apperr.CodeDependency, err, "identity provider unavailable")
	}
	s.logger.Info().Str("uid", acc.UID).Msg("auth: account created")

	return s.startSession(ctx, sessionID, acc)
}

func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return apperr.Wrap(apperr.CodeDependency, err, "identity provider unavailable")
	}
	return s.publish(ctx, sessionID, nil)
}

func (s *Service) Refresh(ctx context.Context, sessionID string) error {
	sess, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return s.publish(ctx, sessionID, nil)
	}
	if err != nil {
		return apperr.Wrap(apperr.CodeDependency, err, "identity provider unavailable")
	}

	acc, err := s.accounts.GetByID(ctx, sess.AccountUID)
	if errors.Is(err, domain.ErrNotFound) {
		_ = s.sessions.Delete(ctx, sessionID)
		return s.publish(ctx, sessionID, nil)
	}
	if err != nil {
		return apperr.Wrap(apperr.CodeDependency, err, "identity provider unavailable")
	}
	return s.publish(ctx, sessionID, providerUser(acc))
}

func (s *Service) startSession(ctx context.Context, sessionID string, acc *domain.Account) error {
	now := s.now()
	if err := s.sessions.Put(ctx, tokenrepo.Session{
		SessionID:  sessionID,
		AccountUID: acc.UID,
		ExpiresAt:  now.Add(s.cfg.SessionTTL),
		CreatedAt:  now,
	}); err != nil {
		return apperr.Wrap(apperr.CodeDependency, err, "identity provider unavailable")
	}
	return s.publish(ctx, sessionID, providerUser(acc))
}

func providerUser(acc *domain.Account) *identity.ProviderUser {
	return &identity.ProviderUser{UID: acc.UID, Email: acc.Email, DisplayName: acc.DisplayName}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePassword(p string, min int) error {
	trimmed := strings.TrimSpace(p)
	if len(trimmed) < min {
		return fmt.Errorf("password must be at least %d characters", min)
	}
	hasUpper := false
	hasLower := false
	hasDigit := false
	for _, r := range trimmed {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return errors.New("password must contain at least 1 uppercase letter, 1 lowercase letter, and 1 number")
	}
	return nil
}
