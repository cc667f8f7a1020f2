package user

import (
	"context"
)

type Repository interface {
	// Create returns an ErrAlreadyExists marked error when the email is taken
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}
