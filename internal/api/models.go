package api

import (
	"time"

	"github.com/phrazzld/contacts-api/internal/domain"
)

// ContactRequest defines the payload for creating a contact.
type ContactRequest struct {
	FirstName string  `json:"first_name"           validate:"required,max=50"`
	LastName  string  `json:"last_name"            validate:"required,max=50"`
	Email     string  `json:"email"                validate:"required,email,max=100"`
	Phone     string  `json:"phone"                validate:"required,max=30"`
	Birthday  string  `json:"birthday"             validate:"required"`
	ExtraInfo *string `json:"extra_info,omitempty" validate:"omitempty,max=500"`
	// Notes is accepted as an alias of extra_info; extra_info wins when both are set.
	Notes *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// ToInput converts the request into service input, parsing the birthday.
func (r ContactRequest) ToInput() (domain.ContactInput, error) {
	birthday, err := domain.ParseDate(r.Birthday)
	if err != nil {
		return domain.ContactInput{}, err
	}
	return domain.ContactInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Phone:     r.Phone,
		Birthday:  birthday,
		ExtraInfo: extraInfo(r.ExtraInfo, r.Notes),
	}, nil
}

// ContactUpdateRequest defines the payload for a partial update.
// Omitted fields keep their stored values.
type ContactUpdateRequest struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=50"`
	LastName  *string `json:"last_name,omitempty"  validate:"omitempty,max=50"`
	Email     *string `json:"email,omitempty"      validate:"omitempty,email,max=100"`
	Phone     *string `json:"phone,omitempty"      validate:"omitempty,max=30"`
	Birthday  *string `json:"birthday,omitempty"`
	ExtraInfo *string `json:"extra_info,omitempty" validate:"omitempty,max=500"`
	Notes     *string `json:"notes,omitempty"      validate:"omitempty,max=500"`
}

// ToPatch converts the request into a domain patch.
func (r ContactUpdateRequest) ToPatch() (domain.ContactPatch, error) {
	patch := domain.ContactPatch{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Phone:     r.Phone,
		ExtraInfo: extraInfo(r.ExtraInfo, r.Notes),
	}
	if r.Birthday != nil {
		birthday, err := domain.ParseDate(*r.Birthday)
		if err != nil {
			return domain.ContactPatch{}, err
		}
		patch.Birthday = &birthday
	}
	return patch, nil
}

func extraInfo(extra, notes *string) *string {
	if extra != nil {
		return extra
	}
	return notes
}

// ContactResponse is the wire form of a contact.
type ContactResponse struct {
	ID            int64     `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Birthday      string    `json:"birthday"`
	ExtraInfo     *string   `json:"extra_info"`
	AvatarURL     *string   `json:"avatar_url"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func contactToResponse(c *domain.Contact) ContactResponse {
	return ContactResponse{
		ID:            c.ID,
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		Email:         c.Email,
		Phone:         c.Phone,
		Birthday:      c.Birthday.Format(domain.DateLayout),
		ExtraInfo:     c.ExtraInfo,
		AvatarURL:     c.AvatarURL,
		EmailVerified: c.EmailVerified,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func contactsToResponse(cs []*domain.Contact) []ContactResponse {
	out := make([]ContactResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, contactToResponse(c))
	}
	return out
}
