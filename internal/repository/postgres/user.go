package postgres

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/domain/user"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/postgres"
)

const usersEmailKey = "users_email_key"

type userRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewUserRepository(client postgres.IClient, logger *logger.Logger) user.Repository {
	return &userRepository{client: client, logger: logger}
}

func (r *userRepository) Create(ctx context.Context, u *user.User) error {
	query := `
	INSERT INTO users (id, email, name, password_hash, role, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.client.Querier(ctx).ExecContext(
		ctx, query,
		u.ID,
		u.Email,
		u.Name,
		u.PasswordHash,
		u.Role,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, usersEmailKey) {
			return ierr.WithError(err).
				WithHint("An account with this email already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create user").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	query := `SELECT id, email, name, password_hash, role, created_at, updated_at FROM users WHERE id = $1`

	var u user.User
	if err := r.client.Querier(ctx).GetContext(ctx, &u, query, id); err != nil {
		return nil, r.mapGetError(err)
	}
	return &u, nil
}

// GetByEmail is only used by login, the caller decides how much to reveal
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT id, email, name, password_hash, role, created_at, updated_at FROM users WHERE email = $1`

	var u user.User
	if err := r.client.Querier(ctx).GetContext(ctx, &u, query, user.NormalizeEmail(email)); err != nil {
		return nil, r.mapGetError(err)
	}
	return &u, nil
}

func (r *userRepository) mapGetError(err error) error {
	if postgres.IsNotFoundError(err) {
		return ierr.WithError(err).
			WithHint("User was not found").
			Mark(ierr.ErrNotFound)
	}
	return ierr.WithError(err).
		WithHint("Failed to get user").
		Mark(ierr.ErrDatabase)
}
