package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"jewelry-storefront/internal/apperr"
	"jewelry-storefront/internal/domain"
)

var federatedSigningMethod = jwt.SigningMethodHS256

type federatedClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// SignInFederated verifies an ID token issued by the federated provider and
// signs in the account linked to its subject, linking by email or creating
// a password-less account on first use.
func (s *Service) SignInFederated(ctx context.Context, sessionID, idToken string) error {
	claims, err := s.parseIDToken(idToken)
	if err != nil {
		s.logger.Debug().Err(err).Msg("auth: reject federated token")
		return apperr.Wrap(apperr.CodeUnauthorized, err, "invalid identity token")
	}

	acc, err := s.resolveFederated(ctx, claims)
	if err != nil {
		return err
	}
	return s.startSession(ctx, sessionID, acc)
}

func (s *Service) parseIDToken(raw string) (*federatedClaims, error) {
	if s.cfg.FederatedSecret == "" {
		return nil, errors.New("federated sign-in is not configured")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{federatedSigningMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.cfg.FederatedIssuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.FederatedIssuer))
	}
	if s.cfg.FederatedAudience != "" {
		opts = append(opts, jwt.WithAudience(s.cfg.FederatedAudience))
	}

	claims := &federatedClaims{}
	_, err := jwt.ParseWithClaims(
		strings.TrimSpace(raw),
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != federatedSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(s.cfg.FederatedSecret), nil
		},
		opts...,
	)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	if normalizeEmail(claims.Email) == "" {
		return nil, errors.New("token has no email")
	}
	return claims, nil
}

func (s *Service) resolveFederated(ctx context.Context, claims *federatedClaims) (*domain.Account, error) {
	acc, err := s.accounts.GetByFederatedSubject(ctx, claims.Subject)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, apperr.Wrap(apperr.CodeDependency, err, "identity provider unavailable")
	}

	email := normalizeEmail(claims.Email)
	acc, err = s.accounts.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.accounts.LinkFederatedSubject(ctx, acc.UID, claims.Subject); err != nil {
			return nil, apperr.Wrap(apperr.CodeDependency, err, "identity provider unavailable")
		}
		acc.FederatedSubject = claims.Subject
		return acc, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, apperr.Wrap(apperr.CodeDependency, err, "identity provider unavailable")
	}

	acc, err = s.accounts.Create(ctx, domain.Account{
		Email:            email,
		DisplayName:      strings.TrimSpace(claims.Name),
		FederatedSubject: claims.Subject,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, ErrEmailTaken
		}
		return nil, apperr.Wrap(apperr.CodeDependency, err, "identity provider unavailable")
	}
	s.logger.Info().Str("uid", acc.UID).Msg("auth: federated account created")
	return acc, nil
}
