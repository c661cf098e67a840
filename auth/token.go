package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "devconnect/errors"
)

// CustomClaims defines the data stored inside a session JWT.
type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies session tokens. The secret is injected from
// configuration so that no package-level key exists.
type TokenManager struct {
	secret   []byte
	lifetime time.Duration
}

func NewTokenManager(secret string, lifetime time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), lifetime: lifetime}
}

// Generate creates a signed JWT for a specific user.
func (t *TokenManager) Generate(userID string) (string, error) {
	claims := &CustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(t.lifetime)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "devconnect",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Identify parses and validates a JWT string and resolves the identity it
// carries. Any parse, signature, or expiry failure maps to ErrAuthentication:
// callers only need to know the credential was rejected.
func (t *TokenManager) Identify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return "", apperrors.ErrAuthentication
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", apperrors.ErrAuthentication
	}
	return claims.UserID, nil
}
