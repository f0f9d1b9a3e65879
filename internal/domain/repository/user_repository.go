package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-user-auth/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate is returned when a write would break username/email uniqueness.
	ErrDuplicate = errors.New("user already exists")
)

// UserRepository defines the interface for user-related database operations.
// Username and email arguments are expected to be lowercased by the caller.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// FindByUsernameOrEmail matches either identifier; empty identifiers are ignored.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error)
	UpdateAccount(ctx context.Context, id, fullname, email string) (*entity.User, error)
	UpdatePassword(ctx context.Context, id, hash string) error
	// SetRefreshToken overwrites the stored refresh token; nil clears it.
	SetRefreshToken(ctx context.Context, id string, token *string) error
	UpdateAvatar(ctx context.Context, id, url string) (*entity.User, error)
	UpdateCoverImage(ctx context.Context, id, url string) (*entity.User, error)
}
