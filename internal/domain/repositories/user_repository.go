package repositories

import (
	"context"
	"errors"

	"github.com/tsuki42/reddit-clone/internal/domain/entities"
)

// ErrDuplicate is returned by Create when the username or email collides
// with an existing row.
var ErrDuplicate = errors.New("user already exists")

// UserRepository gives CRUD access to the users table. Lookups return
// (nil, nil) when no row matches.
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) (*entities.User, error)
	FindByID(ctx context.Context, id uint) (*entities.User, error)
	FindByUsername(ctx context.Context, username string) (*entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
}
