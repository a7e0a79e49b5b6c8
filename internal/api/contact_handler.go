package api

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/contacts-api/internal/api/shared"
	"github.com/phrazzld/contacts-api/internal/platform/logger"
	"github.com/phrazzld/contacts-api/internal/service"
)

const (
	// ContactIDParam is the chi URL parameter holding a contact ID.
	ContactIDParam = "contactID"
	// TokenParam is the chi URL parameter holding a verification token.
	TokenParam = "token"

	contactFormField = "contact"
	avatarFormField  = "avatar"

	maxJSONBodyBytes    = 1 << 20
	multipartMemorySize = 8 << 20
)

// HandlerConfig carries request limits for ContactHandler.
type HandlerConfig struct {
	// MaxListLimit caps the limit query parameter; 0 disables the cap.
	MaxListLimit int
	// MaxUploadBytes bounds the avatar part of multipart requests.
	MaxUploadBytes int64
}

// ContactHandler handles contact-related HTTP requests
type ContactHandler struct {
	contacts service.ContactService
	cfg      HandlerConfig
	logger   *slog.Logger
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(contacts service.ContactService, cfg HandlerConfig, logger *slog.Logger) *ContactHandler {
	if contacts == nil {
		panic("contact service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactHandler{
		contacts: contacts,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "contact_handler")),
	}
}

// Routes mounts the contact endpoints on r.
func (h *ContactHandler) Routes(r chi.Router) {
	r.Post("/", h.CreateContact)
	r.Get("/", h.ListContacts)
	r.Get("/birthdays", h.UpcomingBirthdays)
	r.Get("/verify/{"+TokenParam+"}", h.VerifyEmail)
	r.Route("/{"+ContactIDParam+"}", func(r chi.Router) {
		r.Get("/", h.GetContact)
		r.Put("/", h.UpdateContact)
		r.Delete("/", h.DeleteContact)
		r.Post("/verification", h.RequestVerification)
	})
}

// CreateContact handles POST /api/contacts/
func (h *ContactHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var req ContactRequest
	avatar, cleanup, ok := h.decodeContactBody(w, r, &req)
	if !ok {
		return
	}
	defer cleanup()

	if err := shared.ValidateRequest(req); err != nil {
		HandleAPIError(w, r, err, 0)
		return
	}
	in, err := req.ToInput()
	if err != nil {
		HandleAPIError(w, r, err, 0)
		return
	}

	contact, err := h.contacts.CreateContact(r.Context(), in, avatar)
	if err != nil {
		HandleAPIError(w, r, err, 0)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, contactToResponse(contact))
}

// ListContacts handles GET /api/contacts/?skip=&limit=&search=
// A non-blank search ignores skip and limit.
func (h *ContactHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r, h.cfg.MaxListLimit)
	if err != nil {
		HandleAPIError(w, r, err, 0)
		return
	}

	var result []ContactResponse
	if params.search != "" {
		contacts, err := h.contacts.SearchContacts(r.Context(), params.search)
		if err != nil {
			HandleAPIError(w, r, err, 0)
			return
		}
		result = contactsToResponse(contacts)
	} else {
		contacts, err := h.contacts.ListContacts(r.Context(), params.skip, params.limit)
		if err != nil {
			HandleAPIError(w, r, err, 0)
			return
		}
		result = contactsToResponse(contacts)
	}

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// UpcomingBirthdays handles GET /api/contacts/birthdays
func (h *ContactHandler) UpcomingBirthdays(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.contacts.UpcomingBirthdays(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, 0)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, contactsToResponse(contacts))
}

// GetContact handles GET /api/contacts/{contactID}
func (h *ContactHandler) GetContact(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	contact, err := h.contacts.GetContact(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, id)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, contactToResponse(contact))
}

// UpdateContact handles PUT /api/contacts/{contactID}
func (h *ContactHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req ContactUpdateRequest
	avatar, cleanup, ok := h.decodeContactBody(w, r, &req)
	if !ok {
		return
	}
	defer cleanup()

	if err := shared.ValidateRequest(req); err != nil {
		HandleAPIError(w, r, err, 0)
		return
	}
	patch, err := req.ToPatch()
	if err != nil {
		HandleAPIError(w, r, err, 0)
		return
	}

	contact, err := h.contacts.UpdateContact(r.Context(), id, patch, avatar)
	if err != nil {
		HandleAPIError(w, r, err, id)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, contactToResponse(contact))
}

// DeleteContact handles DELETE /api/contacts/{contactID}
func (h *ContactHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	contact, err := h.contacts.DeleteContact(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, id)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, contactToResponse(contact))
}

// RequestVerification handles POST /api/contacts/{contactID}/verification
func (h *ContactHandler) RequestVerification(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if _, err := h.contacts.RequestEmailVerification(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, id)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusAccepted, shared.MessageResponse{Message: "Verification email sent"})
}

// VerifyEmail handles GET /api/contacts/verify/{token}
func (h *ContactHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, TokenParam)
	if token == "" {
		HandleAPIError(w, r, service.ErrInvalidToken, 0)
		return
	}

	if _, err := h.contacts.VerifyEmail(r.Context(), token); err != nil {
		HandleAPIError(w, r, err, 0)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, shared.MessageResponse{Message: "Email verified"})
}

func (h *ContactHandler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := getPathID(r, ContactIDParam)
	if err != nil {
		logger.FromContextOrDefault(r.Context(), h.logger).Debug("invalid contact id",
			slog.String("value", chi.URLParam(r, ContactIDParam)))
		HandleAPIError(w, r, err, 0)
		return 0, false
	}
	return id, true
}

// decodeContactBody decodes a JSON body, or a multipart form with a JSON
// "contact" field and an optional "avatar" file, into dst. The returned
// cleanup must be called once the avatar reader is no longer needed.
func (h *ContactHandler) decodeContactBody(
	w http.ResponseWriter,
	r *http.Request,
	dst interface{},
) (io.Reader, func(), bool) {
	noop := func() {}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
		if err := shared.DecodeRequestJSON(r, dst); err != nil {
			h.respondDecodeError(w, r, err)
			return nil, noop, false
		}
		return nil, noop, true
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes+maxJSONBodyBytes)
	if err := r.ParseMultipartForm(multipartMemorySize); err != nil {
		h.respondDecodeError(w, r, err)
		return nil, noop, false
	}
	cleanup := func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logger.FromContextOrDefault(r.Context(), h.logger).Warn("failed to remove multipart files",
				slog.String("error", err.Error()))
		}
	}

	if err := shared.DecodeJSON(strings.NewReader(r.FormValue(contactFormField)), dst); err != nil {
		cleanup()
		h.respondDecodeError(w, r, err)
		return nil, noop, false
	}

	file, _, err := r.FormFile(avatarFormField)
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return nil, cleanup, true
	case err != nil:
		cleanup()
		h.respondDecodeError(w, r, err)
		return nil, noop, false
	}

	return file, func() {
		_ = file.Close()
		cleanup()
	}, true
}

func (h *ContactHandler) respondDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	resp := shared.ErrorResponse{Error: "Invalid request format", Code: http.StatusBadRequest}
	switch {
	case errors.As(err, &tooLarge):
		resp = shared.ErrorResponse{Error: "Request body too large", Code: http.StatusRequestEntityTooLarge}
	case errors.Is(err, shared.ErrEmptyBody):
		resp.Error = "Request body is required"
	}
	shared.RespondWithErrorAndLog(w, r, resp, err)
}
