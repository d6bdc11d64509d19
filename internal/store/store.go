package store

import (
	"context"
	"errors"
	"time"

	"github.com/vovakirdan/textchat-relay/internal/core"
)

var (
	// ErrNotFound is returned when a user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a username is already taken.
	ErrConflict = errors.New("already exists")
)

// User represents a registered user of the users service.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// UserStore defines operations for user management.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	UpdatePasswordHash(ctx context.Context, username, passwordHash string) error
	DeleteUser(ctx context.Context, username string) error
}

// Store combines user and access token persistence.
type Store interface {
	UserStore
	core.TokenStore
	Ping(ctx context.Context) error
	Close() error
}
