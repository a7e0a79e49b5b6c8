package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/contacts-api/internal/domain"
)

// DefaultListLimit is used when a list request has no limit parameter.
const DefaultListLimit = 100

// getPathID extracts a positive contact ID from the URL path parameters.
func getPathID(r *http.Request, paramName string) (int64, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return 0, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := strconv.ParseInt(pathParam, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(paramName, "must be a positive integer", domain.ErrInvalidID)
	}
	return id, nil
}

// getQueryInt parses a non-negative integer query parameter, returning def
// when it is absent.
func getQueryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, domain.NewValidationError(name, "must be a non-negative integer", domain.ErrInvalidFormat)
	}
	return v, nil
}

// listParams holds the parsed query of GET /api/contacts.
type listParams struct {
	skip   int
	limit  int
	search string
}

// parseListParams reads skip, limit and search. maxLimit of 0 disables the cap.
func parseListParams(r *http.Request, maxLimit int) (listParams, error) {
	var p listParams
	var err error

	p.search = strings.TrimSpace(r.URL.Query().Get("search"))

	if p.skip, err = getQueryInt(r, "skip", 0); err != nil {
		return p, err
	}
	if p.limit, err = getQueryInt(r, "limit", DefaultListLimit); err != nil {
		return p, err
	}
	if maxLimit > 0 && p.limit > maxLimit {
		return p, domain.NewValidationError("limit", "must be at most "+strconv.Itoa(maxLimit), domain.ErrInvalidFormat)
	}
	return p, nil
}
