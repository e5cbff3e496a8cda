package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/shashiranjanraj/storefront/config"
)

// Scope separates shopper sessions from the operator console.
type Scope string

const (
	ScopeUser  Scope = "user"
	ScopeAdmin Scope = "admin"
)

const (
	UserTokenTTL  = 7 * 24 * time.Hour
	AdminTokenTTL = 24 * time.Hour
)

// ErrInvalidToken is returned for any token that fails parsing, signature,
// expiry or scope checks.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims holds the typed JWT payload.
type Claims struct {
	UserID uint   `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Scope  Scope  `json:"scope"`
	jwt.RegisteredClaims
}

// TTL returns the token lifetime for scope.
func (s Scope) TTL() time.Duration {
	if s == ScopeAdmin {
		return AdminTokenTTL
	}
	return UserTokenTTL
}

// Admin and user tokens are signed with different keys so one can never be
// replayed as the other even if the scope claim were ignored.
func secret(scope Scope) []byte {
	return []byte(config.JWTSecret() + ":" + string(scope))
}

// IssueToken signs a token for scope. userID is zero for admin tokens.
func IssueToken(scope Scope, userID uint, email string) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Scope:  scope,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprint(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(scope.TTL())),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret(scope))
	if err != nil {
		return "", nil, fmt.Errorf("auth: sign: %w", err)
	}
	return signed, claims, nil
}

// ValidateToken parses t and checks that it was issued for scope.
func ValidateToken(t string, scope Scope) (*Claims, error) {
	token, err := jwt.ParseWithClaims(t, &Claims{}, func(tok *jwt.Token) (interface{}, error) {
		return secret(scope), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Scope != scope {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
