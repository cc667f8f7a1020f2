package auth

import (
	"context"
	"time"

	"github.com/flexprice/subscription-billing/internal/config"
	ierr "github.com/flexprice/subscription-billing/internal/errors"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

type jwtAuth struct {
	cfg config.AuthConfig
	now func() time.Time
}

// NewJWTAuth signs HS256 tokens with the configured secret
func NewJWTAuth(cfg *config.Configuration) *jwtAuth {
	return &jwtAuth{
		cfg: cfg.Auth,
		now: time.Now,
	}
}

// tokenClaims is the wire form of Claims
type tokenClaims struct {
	Role types.UserRole `json:"role"`
	Type TokenType      `json:"typ"`
	jwt.RegisteredClaims
}

func (a *jwtAuth) HashPassword(password string) (string, error) {
	if password == "" {
		return "", ierr.NewError("password is required").
			WithHint("Password is required").
			Mark(ierr.ErrValidation)
	}

	cost := a.cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to hash password").
			Mark(ierr.ErrSystem)
	}
	return string(hashed), nil
}

func (a *jwtAuth) ComparePassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid credentials").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (a *jwtAuth) IssueTokens(ctx context.Context, userID string, role types.UserRole) (*TokenPair, error) {
	access, err := a.sign(userID, role, TokenTypeAccess, a.cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := a.sign(userID, role, TokenTypeRefresh, a.cfg.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(a.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

func (a *jwtAuth) ValidateToken(ctx context.Context, token string, expected TokenType) (*Claims, error) {
	var claims tokenClaims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	parsed, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(a.cfg.Secret), nil
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid or expired token").
			Mark(ierr.ErrUnauthorized)
	}
	if !parsed.Valid {
		return nil, ierr.NewError("invalid token").
			WithHint("Invalid or expired token").
			Mark(ierr.ErrUnauthorized)
	}

	if claims.Type != expected {
		return nil, ierr.NewErrorf("expected %s token, got %q", expected, claims.Type).
			WithHint("Invalid token type").
			Mark(ierr.ErrUnauthorized)
	}
	if claims.Subject == "" {
		return nil, ierr.NewError("token missing subject").
			WithHint("Invalid token claims").
			Mark(ierr.ErrUnauthorized)
	}
	if err := claims.Role.Validate(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid token claims").
			Mark(ierr.ErrUnauthorized)
	}

	return &Claims{UserID: claims.Subject, Role: claims.Role, Type: claims.Type}, nil
}

func (a *jwtAuth) sign(userID string, role types.UserRole, typ TokenType, ttl time.Duration) (string, error) {
	now := a.now()
	claims := tokenClaims{
		Role: role,
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.cfg.Secret))
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to generate token").
			Mark(ierr.ErrSystem)
	}
	return signed, nil
}
