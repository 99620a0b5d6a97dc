// Package service provides authentication business logic,
// delegating persistence to a UserRepository and a TokenStore.
package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/akozyrev/stocktake/internal/models"
)

// Login throttling parameters, mirrored on the original lockout
// policy: three failed attempts lock the account for five minutes.
const (
	MaxLoginAttempts = 3
	LockoutDuration  = 5 * time.Minute
	TokenTTL         = 24 * time.Hour
)

// UserRepository defines the persistence operations required by the
// authentication service.
type UserRepository interface {
	// FindByUsername fetches a user by login name, or sql.ErrNoRows.
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	// FindByID fetches a user by database id.
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// TokenStore holds bearer tokens and login-failure counters. The
// production implementation is redis-backed so lockouts survive a
// server restart and apply across instances.
type TokenStore interface {
	// SaveToken associates a token with a user for the given TTL.
	SaveToken(ctx context.Context, token string, userID int64, ttl time.Duration) error
	// UserIDForToken resolves a token, or returns ErrInvalidToken.
	UserIDForToken(ctx context.Context, token string) (int64, error)
	// DeleteToken invalidates a token.
	DeleteToken(ctx context.Context, token string) error
	// RecordFailure bumps the user's failed-attempt counter and
	// returns the new count. The counter expires after the window.
	RecordFailure(ctx context.Context, username string, window time.Duration) (int64, error)
	// FailureCount returns the user's current failed-attempt count.
	FailureCount(ctx context.Context, username string) (int64, error)
	// ResetFailures clears the user's failed-attempt counter.
	ResetFailures(ctx context.Context, username string) error
}

// AuthService implements password login with lockout and bearer-token
// authentication.
type AuthService struct {
	users  UserRepository
	tokens TokenStore
}

// NewAuthService constructs an AuthService using the provided
// repository and token store.
func NewAuthService(users UserRepository, tokens TokenStore) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Login verifies the credentials and issues a bearer token. After
// MaxLoginAttempts consecutive failures the account is locked for
// LockoutDuration.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	count, err := s.tokens.FailureCount(ctx, username)
	if err != nil {
		return "", nil, err
	}
	if count >= MaxLoginAttempts {
		return "", nil, ErrLockedOut
	}

	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		// Count the miss so unknown usernames cannot be probed faster
		// than real ones.
		if _, ferr := s.tokens.RecordFailure(ctx, username, LockoutDuration); ferr != nil {
			return "", nil, ferr
		}
		return "", nil, ErrBadCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		if _, ferr := s.tokens.RecordFailure(ctx, username, LockoutDuration); ferr != nil {
			return "", nil, ferr
		}
		return "", nil, ErrBadCredentials
	}

	if err := s.tokens.ResetFailures(ctx, username); err != nil {
		return "", nil, err
	}

	token := uuid.NewString()
	if err := s.tokens.SaveToken(ctx, token, user.ID, TokenTTL); err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Authenticate resolves a bearer token to its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.tokens.UserIDForToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, userID)
}

// Logout invalidates the token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.tokens.DeleteToken(ctx, token)
}
