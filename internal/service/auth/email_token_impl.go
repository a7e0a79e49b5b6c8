package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/contacts-api/internal/config"
	"github.com/phrazzld/contacts-api/internal/platform/logger"
)

const minSecretLength = 32

// hmacEmailTokenService is an implementation of EmailTokenService using HMAC-SHA signing.
type hmacEmailTokenService struct {
	signingKey    []byte
	tokenLifetime time.Duration
	timeFunc      func() time.Time // Injectable for testing
	clockSkew     time.Duration    // Allowed time difference when validating
}

type emailTokenClaims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// Ensure hmacEmailTokenService implements EmailTokenService interface
var _ EmailTokenService = (*hmacEmailTokenService)(nil)

// NewEmailTokenService creates a token service signing with HS256.
func NewEmailTokenService(cfg config.AuthConfig) (EmailTokenService, error) {
	return newEmailTokenService(cfg, time.Now)
}

func newEmailTokenService(cfg config.AuthConfig, timeFunc func() time.Time) (*hmacEmailTokenService, error) {
	if len(cfg.EmailTokenSecret) < minSecretLength {
		return nil, fmt.Errorf("email token secret must be at least %d characters", minSecretLength)
	}
	if cfg.EmailTokenLifetimeMinutes <= 0 {
		return nil, fmt.Errorf("email token lifetime must be positive")
	}

	return &hmacEmailTokenService{
		signingKey:    []byte(cfg.EmailTokenSecret),
		tokenLifetime: time.Duration(cfg.EmailTokenLifetimeMinutes) * time.Minute,
		timeFunc:      timeFunc,
		clockSkew:     2 * time.Minute,
	}, nil
}

// GenerateEmailToken implements EmailTokenService.
// The address is lower-cased so that verification matches case-insensitively.
func (s *hmacEmailTokenService) GenerateEmailToken(ctx context.Context, email string) (string, error) {
	log := logger.FromContext(ctx)

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("cannot issue a verification token without an email")
	}

	now := s.timeFunc()
	claims := emailTokenClaims{
		TokenType: TokenTypeEmailVerification,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenLifetime)),
			ID:        uuid.New().String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		log.Error("failed to sign email verification token",
			"error", err,
			"signing_method", jwt.SigningMethodHS256.Name)
		return "", fmt.Errorf("failed to sign email verification token: %w", err)
	}

	return signed, nil
}

// ValidateEmailToken implements EmailTokenService.
func (s *hmacEmailTokenService) ValidateEmailToken(ctx context.Context, tokenString string) (*Claims, error) {
	log := logger.FromContext(ctx)
	now := s.timeFunc()

	token, err := jwt.ParseWithClaims(
		tokenString,
		&emailTokenClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(s.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			log.Debug("email token rejected: expired", "error", err)
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
			log.Debug("email token rejected: not yet valid", "error", err)
			return nil, ErrTokenNotYetValid
		default:
			log.Debug("email token rejected",
				"error", err,
				"error_type", fmt.Sprintf("%T", err))
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*emailTokenClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		log.Debug("email token rejected: invalid claims")
		return nil, ErrInvalidToken
	}
	if claims.TokenType != TokenTypeEmailVerification {
		log.Debug("email token rejected: wrong token type",
			"expected", TokenTypeEmailVerification,
			"actual", claims.TokenType)
		return nil, ErrWrongTokenType
	}

	result := &Claims{
		Email:     claims.Subject,
		TokenType: claims.TokenType,
		ID:        claims.ID,
	}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}
	return result, nil
}
