package repository

import (
	"context"
	"errors"

	"user-enrollment/backend/internal/user/domain"
)

// ErrDuplicateLogin is returned by Create when the login is already stored.
var ErrDuplicateLogin = errors.New("login already exists")

// Repository defines persistence for users. Lookups return (nil, nil) when nothing matches.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByLogin(ctx context.Context, login string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	// UpdateCredentials stores the user's current salt and password hash.
	UpdateCredentials(ctx context.Context, u *domain.User) error
}
