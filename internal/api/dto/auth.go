package dto

import (
	"github.com/flexprice/subscription-billing/internal/validator"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required" validate:"required,email"`
	Password string `json:"password" binding:"required" validate:"required,min=6"`
}

func (r *LoginRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required" validate:"required"`
}

func (r *RefreshTokenRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type AuthResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int64         `json:"expires_in"`
	User         *UserResponse `json:"user,omitempty"`
}
