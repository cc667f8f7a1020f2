package user

import (
	"strings"

	"github.com/flexprice/subscription-billing/internal/types"
)

type User struct {
	ID           string         `db:"id" json:"id"`
	Email        string         `db:"email" json:"email"`
	Name         string         `db:"name" json:"name"`
	PasswordHash string         `db:"password_hash" json:"-"`
	Role         types.UserRole `db:"role" json:"role"`
	types.BaseModel
}

func NewUser(email, name, passwordHash string, role types.UserRole) *User {
	if role == "" {
		role = types.UserRoleUser
	}
	return &User{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_USER),
		Email:        NormalizeEmail(email),
		Name:         name,
		PasswordHash: passwordHash,
		Role:         role,
		BaseModel:    types.GetDefaultBaseModel(),
	}
}

// NormalizeEmail lower-cases and trims an address so uniqueness is case insensitive
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
