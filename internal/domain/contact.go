package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the wire and storage format of a birthday.
const DateLayout = "2006-01-02"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Contact is a single address book entry.
type Contact struct {
	ID            int64     `json:"id"`
	FirstName     string    `json:"first_name"           validate:"required,max=50"`
	LastName      string    `json:"last_name"            validate:"required,max=50"`
	Email         string    `json:"email"                validate:"required,email,max=100"`
	Phone         string    `json:"phone"                validate:"required,max=30"`
	Birthday      time.Time `json:"birthday"`
	ExtraInfo     *string   `json:"extra_info,omitempty" validate:"omitempty,max=500"`
	AvatarURL     *string   `json:"avatar_url,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ContactInput carries the caller-supplied fields of a new contact.
type ContactInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Birthday  time.Time
	ExtraInfo *string
}

// NewContact builds and validates a contact from input. The ID and
// timestamps are assigned by the store.
func NewContact(in ContactInput, now time.Time) (*Contact, error) {
	c := &Contact{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Birthday:  DateOf(in.Birthday),
		ExtraInfo: normalizeOptional(in.ExtraInfo),
	}

	if err := c.Validate(now); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks every field rule of the contact against the given clock.
func (c *Contact) Validate(now time.Time) error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fieldError(fieldErrs[0])
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if c.Birthday.IsZero() {
		return NewValidationError("birthday", "is required", ErrValidation)
	}
	if DateOf(c.Birthday).After(DateOf(now)) {
		return NewValidationError("birthday", "cannot be in the future", ErrBirthdayInFuture)
	}
	return nil
}

// FullName joins first and last name for greetings.
func (c *Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// ContactPatch is a partial update. Nil fields are left untouched.
type ContactPatch struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Birthday  *time.Time
	ExtraInfo *string
}

// IsEmpty reports whether the patch changes nothing.
func (p ContactPatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil &&
		p.Phone == nil && p.Birthday == nil && p.ExtraInfo == nil
}

// Apply merges the patch into c and reports whether the email address changed.
// A changed email is no longer verified.
func (p ContactPatch) Apply(c *Contact) (emailChanged bool) {
	if p.FirstName != nil {
		c.FirstName = strings.TrimSpace(*p.FirstName)
	}
	if p.LastName != nil {
		c.LastName = strings.TrimSpace(*p.LastName)
	}
	if p.Email != nil {
		email := strings.TrimSpace(*p.Email)
		if !strings.EqualFold(email, c.Email) {
			emailChanged = true
			c.EmailVerified = false
		}
		c.Email = email
	}
	if p.Phone != nil {
		c.Phone = strings.TrimSpace(*p.Phone)
	}
	if p.Birthday != nil {
		c.Birthday = DateOf(*p.Birthday)
	}
	if p.ExtraInfo != nil {
		c.ExtraInfo = normalizeOptional(p.ExtraInfo)
	}
	return emailChanged
}

// ParseDate parses a YYYY-MM-DD birthday.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, NewValidationError("birthday", "must be a date in YYYY-MM-DD format", ErrInvalidFormat)
	}
	return t, nil
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func fieldError(fe validator.FieldError) *ValidationError {
	switch fe.Tag() {
	case "required":
		return NewValidationError(fe.Field(), "is required", ErrValidation)
	case "email":
		return NewValidationError(fe.Field(), "must be a valid email address", ErrInvalidEmail)
	case "max":
		return NewValidationError(fe.Field(), fmt.Sprintf("must be at most %s characters", fe.Param()), ErrValidation)
	default:
		return NewValidationError(fe.Field(), "is invalid", ErrValidation)
	}
}
