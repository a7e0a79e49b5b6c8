package auth

import (
	"context"
	"time"
)

// TokenTypeEmailVerification marks tokens that confirm ownership of an email address.
const TokenTypeEmailVerification = "email_verification"

// EmailTokenService issues and checks the signed tokens embedded in
// verification links.
type EmailTokenService interface {
	// GenerateEmailToken creates a signed token whose subject is email.
	GenerateEmailToken(ctx context.Context, email string) (string, error)

	// ValidateEmailToken verifies the token's signature, lifetime and type
	// and returns its claims.
	ValidateEmailToken(ctx context.Context, token string) (*Claims, error)
}

// Claims holds the validated content of an email verification token.
type Claims struct {
	Email     string    `json:"sub,omitempty"`
	TokenType string    `json:"type,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
