package auth

import (
	"context"

	"github.com/flexprice/subscription-billing/internal/config"
	"github.com/flexprice/subscription-billing/internal/types"
)

// TokenType separates short lived access tokens from refresh tokens
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is what a validated token says about its bearer
type Claims struct {
	UserID string
	Role   types.UserRole
	Type   TokenType
}

// TokenPair is returned on login and refresh
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	// ExpiresIn is the access token lifetime in seconds
	ExpiresIn int64
}

type Provider interface {
	HashPassword(password string) (string, error)
	ComparePassword(hash, password string) error

	// IssueTokens signs a fresh access and refresh token for the user
	IssueTokens(ctx context.Context, userID string, role types.UserRole) (*TokenPair, error)

	// ValidateToken parses token and checks it is of the expected type
	ValidateToken(ctx context.Context, token string, expected TokenType) (*Claims, error)
}

func NewProvider(cfg *config.Configuration) Provider {
	return NewJWTAuth(cfg)
}
