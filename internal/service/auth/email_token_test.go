package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/phrazzld/contacts-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-for-testing"

var fixedTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		EmailTokenSecret:          testSecret,
		EmailTokenLifetimeMinutes: 60,
	}
}

func newTestService(t *testing.T, now time.Time) *hmacEmailTokenService {
	t.Helper()
	svc, err := newEmailTokenService(testAuthConfig(), func() time.Time { return now })
	require.NoError(t, err)
	return svc
}

func signClaims(t *testing.T, claims jwt.Claims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestNewEmailTokenService(t *testing.T) {
	t.Parallel()

	_, err := NewEmailTokenService(testAuthConfig())
	require.NoError(t, err)

	_, err = NewEmailTokenService(config.AuthConfig{EmailTokenSecret: "short", EmailTokenLifetimeMinutes: 60})
	assert.Error(t, err)

	_, err = NewEmailTokenService(config.AuthConfig{EmailTokenSecret: testSecret})
	assert.Error(t, err)
}

func TestGenerateEmailToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newTestService(t, fixedTime)

	token, err := svc.GenerateEmailToken(ctx, "  Ada@Example.com ")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateEmailToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, TokenTypeEmailVerification, claims.TokenType)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)

	_, err = svc.GenerateEmailToken(ctx, "   ")
	assert.Error(t, err)
}

func TestValidateEmailToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	issued, err := newTestService(t, fixedTime).GenerateEmailToken(ctx, "ada@example.com")
	require.NoError(t, err)

	validClaims := func() jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Subject:   "ada@example.com",
			IssuedAt:  jwt.NewNumericDate(fixedTime),
			ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
		}
	}

	notBefore := validClaims()
	notBefore.NotBefore = jwt.NewNumericDate(fixedTime.Add(30 * time.Minute))

	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil

	noSubject := validClaims()
	noSubject.Subject = ""

	tests := []struct {
		name    string
		token   string
		now     time.Time
		wantErr error
	}{
		{
			name:  "valid token",
			token: issued,
			now:   fixedTime.Add(30 * time.Minute),
		},
		{
			name:  "expired within clock skew",
			token: issued,
			now:   fixedTime.Add(time.Hour + time.Minute),
		},
		{
			name:    "expired",
			token:   issued,
			now:     fixedTime.Add(time.Hour + 5*time.Minute),
			wantErr: ErrExpiredToken,
		},
		{
			name:    "wrong secret",
			token:   signClaims(t, emailTokenClaims{TokenType: TokenTypeEmailVerification, RegisteredClaims: validClaims()}, "another-secret-that-is-long-enough-too"),
			now:     fixedTime,
			wantErr: ErrInvalidToken,
		},
		{
			name:    "malformed",
			token:   "not-a-token",
			now:     fixedTime,
			wantErr: ErrInvalidToken,
		},
		{
			name:    "wrong token type",
			token:   signClaims(t, emailTokenClaims{TokenType: "access", RegisteredClaims: validClaims()}, testSecret),
			now:     fixedTime,
			wantErr: ErrWrongTokenType,
		},
		{
			name:    "not yet valid",
			token:   signClaims(t, emailTokenClaims{TokenType: TokenTypeEmailVerification, RegisteredClaims: notBefore}, testSecret),
			now:     fixedTime,
			wantErr: ErrTokenNotYetValid,
		},
		{
			name:    "missing expiry",
			token:   signClaims(t, emailTokenClaims{TokenType: TokenTypeEmailVerification, RegisteredClaims: noExpiry}, testSecret),
			now:     fixedTime,
			wantErr: ErrInvalidToken,
		},
		{
			name:    "missing subject",
			token:   signClaims(t, emailTokenClaims{TokenType: TokenTypeEmailVerification, RegisteredClaims: noSubject}, testSecret),
			now:     fixedTime,
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			claims, err := newTestService(t, tt.now).ValidateEmailToken(ctx, tt.token)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "ada@example.com", claims.Email)
		})
	}
}

func TestValidateEmailToken_RejectsNoneAlgorithm(t *testing.T) {
	t.Parallel()

	claims := emailTokenClaims{
		TokenType: TokenTypeEmailVerification,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ada@example.com",
			ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestService(t, fixedTime).ValidateEmailToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
