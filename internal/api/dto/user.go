package dto

import (
	"strings"
	"time"

	"github.com/flexprice/subscription-billing/internal/domain/user"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/flexprice/subscription-billing/internal/validator"
)

// RegisterUserRequest represents the request to create a new account
type RegisterUserRequest struct {
	Email    string         `json:"email" binding:"required" validate:"required,email"`
	Password string         `json:"password" binding:"required" validate:"required,min=6"`
	Name     string         `json:"name" binding:"required" validate:"required,min=2"`
	Role     types.UserRole `json:"role,omitempty" validate:"omitempty,user_role"`
}

func (r *RegisterUserRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	return validator.ValidateRequest(r)
}

// UserResponse never carries the password hash
type UserResponse struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Name      string         `json:"name"`
	Role      types.UserRole `json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func NewUserResponse(u *user.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
