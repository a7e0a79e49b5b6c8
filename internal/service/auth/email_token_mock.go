package auth

import "context"

// MockEmailTokenService is a configurable EmailTokenService for tests.
type MockEmailTokenService struct {
	GenerateEmailTokenFunc func(ctx context.Context, email string) (string, error)
	ValidateEmailTokenFunc func(ctx context.Context, token string) (*Claims, error)

	// Fixed results used when the func fields are nil
	Token           string
	TokenError      error
	Claims          *Claims
	ValidationError error
}

// GenerateEmailToken implements EmailTokenService.
func (m *MockEmailTokenService) GenerateEmailToken(ctx context.Context, email string) (string, error) {
	if m.GenerateEmailTokenFunc != nil {
		return m.GenerateEmailTokenFunc(ctx, email)
	}
	return m.Token, m.TokenError
}

// ValidateEmailToken implements EmailTokenService.
func (m *MockEmailTokenService) ValidateEmailToken(ctx context.Context, token string) (*Claims, error) {
	if m.ValidateEmailTokenFunc != nil {
		return m.ValidateEmailTokenFunc(ctx, token)
	}
	return m.Claims, m.ValidationError
}
