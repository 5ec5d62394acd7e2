// Package auth adapts the external auth provider into the two facts the core
// needs about a caller: who they are and whether their email is verified.
// Tokens are HS256 JWTs minted by the provider with the shared secret.
package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity is the verified caller context attached to a request.
type Identity struct {
	UserID        uuid.UUID
	Handle        string
	EmailVerified bool
}

// Verifier validates a bearer token and extracts the caller identity.
type Verifier interface {
	Verify(tokenString string) (*Identity, error)
}

// JWTVerifier validates HS256 tokens signed with the provider's shared
// secret.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a new JWT verifier
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify parses and validates a token, returning the identity claims.
func (v *JWTVerifier) Verify(tokenString string) (*Identity, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, fmt.Errorf("no sub claim in token")
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("sub is not a valid user id: %w", err)
	}

	identity := &Identity{UserID: userID}
	if handle, ok := claims["handle"].(string); ok {
		identity.Handle = handle
	}
	if verified, ok := claims["email_verified"].(bool); ok {
		identity.EmailVerified = verified
	}
	return identity, nil
}

// SelectVerifier picks the verifier for a deployment environment. A
// configured secret always wins; without one, production refuses to start
// rather than fall back to the mock.
func SelectVerifier(environment, secret string) (Verifier, error) {
	if secret != "" {
		return NewJWTVerifier(secret), nil
	}
	if environment == "production" {
		return nil, fmt.Errorf("AUTH_JWT_SECRET must be configured in production")
	}
	return NewMockVerifier(), nil
}

// MockVerifier accepts any non-empty token and returns a fixed identity.
// For development and tests only.
type MockVerifier struct {
	Identity Identity
}

// NewMockVerifier creates a mock verifier with a fresh user id
func NewMockVerifier() *MockVerifier {
	return &MockVerifier{
		Identity: Identity{
			UserID:        uuid.New(),
			Handle:        "dev-user",
			EmailVerified: true,
		},
	}
}

func (m *MockVerifier) Verify(tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("empty token")
	}
	identity := m.Identity
	return &identity, nil
}
