package types

import (
	"fmt"

	"github.com/samber/lo"
)

// UserRole is the authorization role carried by a user and its tokens
type UserRole string

const (
	UserRoleUser  UserRole = "USER"
	UserRoleAdmin UserRole = "ADMIN"
)

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) Validate() error {
	allowed := []UserRole{
		UserRoleUser,
		UserRoleAdmin,
	}
	if !lo.Contains(allowed, r) {
		return fmt.Errorf("invalid user role: %s", r)
	}
	return nil
}
