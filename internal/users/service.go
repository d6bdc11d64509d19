// Package users implements the users service the chat relay logs in against.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vovakirdan/textchat-relay/internal/core"
	"github.com/vovakirdan/textchat-relay/internal/store"
)

var (
	// ErrInvalidCredentials is returned when username/password don't match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when trying to register with existing username.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned for operations on unknown users.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidUsername is returned when username doesn't meet constraints.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrInvalidPassword is returned when password doesn't meet constraints.
	ErrInvalidPassword = errors.New("invalid password")
)

// Service provides user management and token issuance.
type Service struct {
	store     store.Store
	jwtConfig *JWTConfig
}

// NewService creates a new users service.
func NewService(st store.Store, jwtConfig *JWTConfig) *Service {
	return &Service{
		store:     st,
		jwtConfig: jwtConfig,
	}
}

// Register creates a new user with a hashed password.
func (s *Service) Register(ctx context.Context, username, password string) (*store.User, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 32 {
		return nil, ErrInvalidUsername
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, username, hashedPassword)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login validates credentials, issues a token and records it as the user's
// current access token.
func (s *Service) Login(ctx context.Context, username, password string) (core.AccessToken, error) {
	user, err := s.authenticate(ctx, username, password)
	if err != nil {
		return core.AccessToken{}, err
	}

	signed, err := GenerateToken(s.jwtConfig, user.ID, user.Username)
	if err != nil {
		return core.AccessToken{}, fmt.Errorf("generate token: %w", err)
	}
	token := core.AccessToken{Token: signed}

	var persistErr error
	s.store.Persist(ctx, user.Username, token).Match(
		func(core.Success) {},
		func(f core.Failure) { persistErr = f },
	)
	if persistErr != nil {
		return core.AccessToken{}, fmt.Errorf("persist token: %w", persistErr)
	}
	return token, nil
}

// CurrentToken returns the last token issued to username.
func (s *Service) CurrentToken(ctx context.Context, username string) core.Result[core.AccessToken] {
	return s.store.Fetch(ctx, username)
}

// GetUser looks a user up by name.
func (s *Service) GetUser(ctx context.Context, username string) (*store.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the password of username.
func (s *Service) ChangePassword(ctx context.Context, username, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePasswordHash(ctx, username, hashedPassword); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// DeleteUser removes username and its token.
func (s *Service) DeleteUser(ctx context.Context, username string) error {
	if err := s.store.DeleteUser(ctx, username); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, tokenString)
}

// Health reports whether the backing store is reachable.
func (s *Service) Health(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) authenticate(ctx context.Context, username, password string) (*store.User, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if errPwd := ComparePassword(user.PasswordHash, password); errPwd != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func validatePassword(password string) error {
	if len(password) < 6 {
		return ErrInvalidPassword
	}
	return nil
}
