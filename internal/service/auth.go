package service

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	"github.com/flexprice/subscription-billing/internal/auth"
	"github.com/flexprice/subscription-billing/internal/domain/user"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
)

const tokenTypeBearer = "Bearer"

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error)
	Refresh(ctx context.Context, req dto.RefreshTokenRequest) (*dto.AuthResponse, error)
}

type authService struct {
	ServiceParams
}

func NewAuthService(params ServiceParams) AuthService {
	return &authService{
		ServiceParams: params,
	}
}

// Login authenticates a user and returns a token pair. Unknown emails and wrong
// passwords fail the same way so the response does not reveal which accounts exist.
func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := s.UserRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, invalidCredentials()
		}
		return nil, err
	}

	if err := s.AuthProvider.ComparePassword(u.PasswordHash, req.Password); err != nil {
		return nil, invalidCredentials()
	}

	return s.issue(ctx, u)
}

// Refresh exchanges a refresh token for a new pair. The user is re-read so a
// role change takes effect on the next refresh.
func (s *authService) Refresh(ctx context.Context, req dto.RefreshTokenRequest) (*dto.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	claims, err := s.AuthProvider.ValidateToken(ctx, req.RefreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	u, err := s.UserRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.WithError(err).
				WithHint("Invalid refresh token").
				Mark(ierr.ErrUnauthorized)
		}
		return nil, err
	}

	return s.issue(ctx, u)
}

func (s *authService) issue(ctx context.Context, u *user.User) (*dto.AuthResponse, error) {
	tokens, err := s.AuthProvider.IssueTokens(ctx, u.ID, u.Role)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    tokens.ExpiresIn,
		User:         dto.NewUserResponse(u),
	}, nil
}

func invalidCredentials() error {
	return ierr.NewError("invalid credentials").
		WithHint("Invalid credentials").
		Mark(ierr.ErrValidation)
}
