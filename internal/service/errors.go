package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/contacts-api/internal/domain"
	"github.com/phrazzld/contacts-api/internal/service/auth"
	"github.com/phrazzld/contacts-api/internal/store"
)

// Sentinel errors returned by ContactService.
// The API layer maps these to HTTP status codes.
var (
	// ErrContactNotFound indicates that no contact has the requested ID or email.
	// API layer should map this to HTTP 404 Not Found.
	ErrContactNotFound = errors.New("contact not found")

	// ErrEmailExists indicates that another contact already uses the email.
	// API layer should map this to HTTP 409 Conflict.
	ErrEmailExists = errors.New("email already exists")

	// ErrInvalidToken indicates a verification token that is malformed,
	// expired or issued for another purpose.
	// API layer should map this to HTTP 400 Bad Request.
	ErrInvalidToken = errors.New("invalid or expired verification token")
)

// ContactServiceError wraps unexpected errors from the contact service with context.
type ContactServiceError struct {
	// Operation is the operation that failed (e.g. "create", "update")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ContactServiceError.
func (e *ContactServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("contact service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("contact service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ContactServiceError) Unwrap() error {
	return e.Err
}

// NewContactServiceError maps err onto the service sentinels, or wraps it.
// Known sentinels and validation errors are returned without wrapping.
func NewContactServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrContactNotFound), errors.Is(err, store.ErrContactNotFound):
		return ErrContactNotFound
	case errors.Is(err, ErrEmailExists), store.IsDuplicateError(err):
		// email is the only unique column a client can collide on
		return ErrEmailExists
	case errors.Is(err, ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType):
		return ErrInvalidToken
	}

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return err
	}
	var opErr *ContactServiceError
	if errors.As(err, &opErr) {
		return err
	}

	return &ContactServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
