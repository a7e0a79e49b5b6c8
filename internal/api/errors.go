package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/contacts-api/internal/api/shared"
	"github.com/phrazzld/contacts-api/internal/domain"
	"github.com/phrazzld/contacts-api/internal/service"
	"github.com/phrazzld/contacts-api/internal/store"
)

// ContactNotFoundError is the error code of 404 responses for a contact ID.
const ContactNotFoundError = "ContactNotFound"

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var validationErrs validator.ValidationErrors
	var fieldErr *domain.ValidationError

	switch {
	// Not found errors
	case errors.Is(err, service.ErrContactNotFound),
		errors.Is(err, store.ErrContactNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, service.ErrEmailExists),
		errors.Is(err, store.ErrEmailExists),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidFormat),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrBirthdayInFuture),
		errors.Is(err, store.ErrInvalidEntity),
		errors.As(err, &fieldErr),
		errors.As(err, &validationErrs):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var fieldErr *domain.ValidationError
	var validationErrs validator.ValidationErrors
	var svcErr *service.ContactServiceError

	switch {
	case errors.As(err, &fieldErr):
		return fmt.Sprintf("Invalid %s: %s", fieldErr.Field, fieldErr.Message)

	case errors.As(err, &validationErrs):
		return SanitizeValidationError(validationErrs)

	case errors.Is(err, service.ErrContactNotFound),
		errors.Is(err, store.ErrContactNotFound):
		return "Contact not found"

	case errors.Is(err, service.ErrEmailExists),
		errors.Is(err, store.ErrEmailExists):
		return "Email already exists"

	case errors.Is(err, store.ErrDuplicate):
		return "Contact already exists"

	case errors.Is(err, service.ErrInvalidToken):
		return "Invalid or expired verification token"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid contact data"

	case errors.As(err, &svcErr):
		return fmt.Sprintf("failed during contact %s", svcErr.Operation)

	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns validator output into "Invalid <field>: <reason>"
// for the first failing field.
func SanitizeValidationError(errs validator.ValidationErrors) string {
	if len(errs) == 0 {
		return "Validation error"
	}
	fe := errs[0]
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe))
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return "too short"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the response for err. Contact lookups that miss
// carry the contact ID in a ContactNotFound payload; pass 0 when no ID applies.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, contactID int64) {
	status := MapErrorToStatusCode(err)
	resp := shared.ErrorResponse{
		Error: GetSafeErrorMessage(err),
		Code:  status,
	}

	if status == http.StatusNotFound && contactID > 0 {
		resp.Error = ContactNotFoundError
		resp.Message = fmt.Sprintf("Contact with id %d not found", contactID)
		resp.ContactID = &contactID
	}

	shared.RespondWithErrorAndLog(w, r, resp, err)
}
