package service

import (
	"context"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MANROEJR/ifs24027-pbo-p11/internal/auth"
	"github.com/MANROEJR/ifs24027-pbo-p11/internal/domain"
	"github.com/MANROEJR/ifs24027-pbo-p11/internal/events"
	"github.com/MANROEJR/ifs24027-pbo-p11/internal/repository"
	apperrors "github.com/MANROEJR/ifs24027-pbo-p11/pkg/util"
)

// AuthService coordinates registration, login and credential changes.
type AuthService struct {
	users      repository.UserRepository
	registry   auth.TokenRegistry
	codec      *auth.TokenCodec
	hasher     auth.PasswordHasher
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AuthDependencies encapsulates the collaborators of the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Registry   auth.TokenRegistry
	Codec      *auth.TokenCodec
	Hasher     auth.PasswordHasher
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		registry:   deps.Registry,
		codec:      deps.Codec,
		hasher:     deps.Hasher,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Register creates a new account.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if err := validateProfile(name, email); err != nil {
		return nil, err
	}
	if err := validatePassword("password", password); err != nil {
		return nil, err
	}

	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{Name: name, Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, mapStoreError(err, "user")
	}

	publish(ctx, s.dispatcher, s.logger, events.EventUserRegistered, user.ID, nil)
	return user, nil
}

// Login checks credentials and issues a token. The new token replaces any previously
// registered one, so older sessions of the same user stop working.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, mapStoreError(err, "user")
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	id, err := uuid.Parse(user.ID)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	token, expiresAt, err := s.codec.Issue(id)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	if err := s.registry.Delete(ctx, user.ID); err != nil {
		return nil, "", time.Time{}, mapStoreError(err, "auth token")
	}
	if _, err := s.registry.Put(ctx, user.ID, token); err != nil {
		return nil, "", time.Time{}, mapStoreError(err, "auth token")
	}

	publish(ctx, s.dispatcher, s.logger, events.EventUserLoggedIn, user.ID, events.SessionPayload{ExpiresAt: expiresAt})
	return user, token, expiresAt, nil
}

// Logout revokes the live token of the user.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.registry.Delete(ctx, userID); err != nil {
		return mapStoreError(err, "auth token")
	}
	publish(ctx, s.dispatcher, s.logger, events.EventUserLoggedOut, userID, nil)
	return nil
}

// UpdateProfile changes the name and email of user.
func (s *AuthService) UpdateProfile(ctx context.Context, user *domain.User, name, email string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if err := validateProfile(name, email); err != nil {
		return nil, err
	}
	if email != user.Email {
		if err := s.ensureEmailFree(ctx, email, user.ID); err != nil {
			return nil, err
		}
	}

	updated := *user
	updated.Name = name
	updated.Email = email
	if err := s.users.Update(ctx, &updated); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, mapStoreError(err, "user")
	}
	return &updated, nil
}

// ChangePassword verifies the current password, revokes the live token and stores the new
// hash, so the user has to log in again.
func (s *AuthService) ChangePassword(ctx context.Context, user *domain.User, current, next string) error {
	if err := validatePassword("newPassword", next); err != nil {
		return err
	}
	if err := s.hasher.Compare(user.PasswordHash, current); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return apperrors.NewValidationError("current password is incorrect", nil)
		}
		return apperrors.NewInternalError(err)
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	// Revoke before storing the hash: a failure here only logs the user out.
	if err := s.registry.Delete(ctx, user.ID); err != nil {
		return mapStoreError(err, "auth token")
	}
	updated := *user
	updated.PasswordHash = hash
	if err := s.users.Update(ctx, &updated); err != nil {
		return mapStoreError(err, "user")
	}

	publish(ctx, s.dispatcher, s.logger, events.EventPasswordChanged, user.ID, nil)
	return nil
}

func (s *AuthService) ensureEmailFree(ctx context.Context, email, ownerID string) error {
	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.ID != ownerID {
			return apperrors.NewConflict("email already registered", nil)
		}
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return mapStoreError(err, "user")
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateProfile(name, email string) error {
	return apperrors.FromValidation("invalid user data", validation.Errors{
		"name":  validation.Validate(name, validation.Required, validation.Length(1, 100)),
		"email": validation.Validate(email, validation.Required, is.Email),
	}.Filter())
}

func validatePassword(field, password string) error {
	return apperrors.FromValidation("invalid password", validation.Errors{
		field: validation.Validate(password, validation.Required, apperrors.MaxBytes(domain.MaxPasswordBytes)),
	}.Filter())
}
