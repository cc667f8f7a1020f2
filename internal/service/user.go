package service

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	"github.com/flexprice/subscription-billing/internal/domain/user"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
)

type UserService interface {
	Register(ctx context.Context, req dto.RegisterUserRequest) (*dto.UserResponse, error)
	GetMe(ctx context.Context, userID string) (*dto.UserResponse, error)
}

type userService struct {
	ServiceParams
}

func NewUserService(params ServiceParams) UserService {
	return &userService{
		ServiceParams: params,
	}
}

// Register creates an account, duplicate emails fail with ErrAlreadyExists
func (s *userService) Register(ctx context.Context, req dto.RegisterUserRequest) (*dto.UserResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.UserRepo.GetByEmail(ctx, req.Email)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		return nil, ierr.NewError("user already exists").
			WithHint("An account with this email already exists").
			WithReportableDetails(map[string]interface{}{
				"email": user.NormalizeEmail(req.Email),
			}).
			Mark(ierr.ErrAlreadyExists)
	}

	hash, err := s.AuthProvider.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := user.NewUser(req.Email, req.Name, hash, req.Role)
	now := s.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	if err := s.UserRepo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.Logger.Infow("user registered", "user_id", u.ID, "role", u.Role)
	return dto.NewUserResponse(u), nil
}

func (s *userService) GetMe(ctx context.Context, userID string) (*dto.UserResponse, error) {
	if userID == "" {
		return nil, ierr.NewError("user id is required").
			WithHint("Authentication required").
			Mark(ierr.ErrUnauthorized)
	}

	u, err := s.UserRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.NewUserResponse(u), nil
}
