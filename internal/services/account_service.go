package services

import (
	"context"
	"strings"

	"github.com/foliofyhq/foliofy/internal/domain/user"
	"github.com/foliofyhq/foliofy/internal/identity"
	"github.com/foliofyhq/foliofy/internal/pkg/errors"
	"github.com/foliofyhq/foliofy/internal/pkg/logger"
	"github.com/foliofyhq/foliofy/internal/pkg/password"
)

// AccountService implements user.Service
type AccountService struct {
	repo   user.Repository
	hasher *password.Hasher
	google identity.Verifier
	logger *logger.Logger
}

// NewAccountService creates a new account service. The Google verifier may be
// nil when Google login is not configured.
func NewAccountService(repo user.Repository, hasher *password.Hasher, google identity.Verifier, log *logger.Logger) user.Service {
	return &AccountService{
		repo:   repo,
		hasher: hasher,
		google: google,
		logger: log,
	}
}

// Register creates a password account
func (s *AccountService) Register(ctx context.Context, name, email, pass string) (*user.User, error) {
	email = normalizeEmail(email)

	hash, err := s.hasher.Hash(pass)
	if err != nil {
		s.logger.ErrorWithErr(err, "Failed to hash password")
		return nil, errors.Internal("Failed to process password", err)
	}

	u := &user.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Plan:         user.PlanFree,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": u.ID,
		"email":   u.Email,
	}).Info("User registered")

	return u, nil
}

// Authenticate verifies email/password credentials
func (s *AccountService) Authenticate(ctx context.Context, email, pass string) (*user.User, error) {
	email = normalizeEmail(email)

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Unauthorized("Invalid email or password")
		}
		return nil, err
	}

	// Accounts created through Google login have no password set.
	if !u.HasPassword() {
		return nil, errors.Unauthorized("Invalid email or password")
	}

	if !s.hasher.Compare(pass, u.PasswordHash) {
		return nil, errors.Unauthorized("Invalid email or password")
	}

	return u, nil
}

// AuthenticateGoogle verifies a Google ID-token assertion, creating the
// account on first login.
func (s *AccountService) AuthenticateGoogle(ctx context.Context, assertion string) (*user.User, error) {
	if s.google == nil {
		return nil, errors.Configuration("Google login is not configured")
	}

	profile, err := s.google.VerifyAssertion(ctx, assertion)
	if err != nil {
		if err == identity.ErrNotConfigured {
			return nil, errors.Configuration("Google login is not configured")
		}
		s.logger.WithError(err).Warn("Google assertion rejected")
		return nil, errors.Unauthorized("Invalid Google credential")
	}

	email := normalizeEmail(profile.Email)

	u, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}

	u = &user.User{
		Name:  profile.Name,
		Email: email,
		Plan:  user.PlanFree,
	}
	if u.Name == "" {
		u.Name = email
	}

	if err := s.repo.Create(ctx, u); err != nil {
		// A concurrent first login may have created the account already.
		if errors.IsConflict(err) {
			return s.repo.GetByEmail(ctx, email)
		}
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": u.ID,
		"email":   u.Email,
	}).Info("User created via Google login")

	return u, nil
}

// GetByID retrieves a user by ID
func (s *AccountService) GetByID(ctx context.Context, id string) (*user.User, error) {
	return s.repo.GetByID(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
