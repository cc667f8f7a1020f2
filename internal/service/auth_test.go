package service

import (
	"testing"

	"github.com/flexprice/subscription-billing/internal/api/dto"
	"github.com/flexprice/subscription-billing/internal/auth"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/testutil"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/stretchr/testify/suite"
)

type AuthServiceSuite struct {
	testutil.BaseServiceTestSuite
	service AuthService
	users   UserService
}

func TestAuthService(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	params := newTestServiceParams(&s.BaseServiceTestSuite, nil)
	s.service = NewAuthService(params)
	s.users = NewUserService(params)

	_, err := s.users.Register(s.GetContext(), dto.RegisterUserRequest{
		Email:    "login@example.com",
		Password: "secret123",
		Name:     "Login User",
		Role:     types.UserRoleAdmin,
	})
	s.Require().NoError(err)
}

func (s *AuthServiceSuite) TestLogin() {
	resp, err := s.service.Login(s.GetContext(), dto.LoginRequest{
		Email:    "LOGIN@example.com",
		Password: "secret123",
	})
	s.Require().NoError(err)
	s.NotEmpty(resp.AccessToken)
	s.NotEmpty(resp.RefreshToken)
	s.Equal("Bearer", resp.TokenType)
	s.Equal(int64(s.GetConfig().Auth.AccessTokenTTL.Seconds()), resp.ExpiresIn)
	s.Equal("login@example.com", resp.User.Email)

	claims, err := s.GetAuthProvider().ValidateToken(s.GetContext(), resp.AccessToken, auth.TokenTypeAccess)
	s.Require().NoError(err)
	s.Equal(resp.User.ID, claims.UserID)
	s.Equal(types.UserRoleAdmin, claims.Role)
}

func (s *AuthServiceSuite) TestLogin_InvalidCredentials() {
	tests := []struct {
		name string
		req  dto.LoginRequest
	}{
		{name: "wrong password", req: dto.LoginRequest{Email: "login@example.com", Password: "wrong-password"}},
		{name: "unknown email", req: dto.LoginRequest{Email: "nobody@example.com", Password: "secret123"}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.Login(s.GetContext(), tt.req)
			s.Require().Error(err)
			s.True(ierr.IsValidation(err))
			s.Equal("Invalid credentials", ierr.GetDisplayMessage(err))
		})
	}
}

func (s *AuthServiceSuite) TestRefresh() {
	login, err := s.service.Login(s.GetContext(), dto.LoginRequest{Email: "login@example.com", Password: "secret123"})
	s.Require().NoError(err)

	resp, err := s.service.Refresh(s.GetContext(), dto.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	s.Require().NoError(err)
	s.NotEmpty(resp.AccessToken)
	s.Equal(login.User.ID, resp.User.ID)

	s.Run("access token is not a refresh token", func() {
		_, err := s.service.Refresh(s.GetContext(), dto.RefreshTokenRequest{RefreshToken: login.AccessToken})
		s.True(ierr.IsUnauthorized(err))
	})

	s.Run("garbage token", func() {
		_, err := s.service.Refresh(s.GetContext(), dto.RefreshTokenRequest{RefreshToken: "not.a.token"})
		s.True(ierr.IsUnauthorized(err))
	})
}
