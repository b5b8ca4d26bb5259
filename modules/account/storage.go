package account

import (
	"context"

	"github.com/google/uuid"
)

// Storage defines the persistence operations the account service needs.
type Storage interface {
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	CreateUser(ctx context.Context, user *User) error
	SetUserVerified(ctx context.Context, id uuid.UUID, verified bool) error
}
