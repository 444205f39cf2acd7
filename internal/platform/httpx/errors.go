// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/inkwell-blog/inkwell/internal/shared"
)

// Client-facing detail messages.
const (
	DetailInvalidToken           = "Invalid token."
	DetailAuthenticationRequired = "Authentication credentials were not provided."
	DetailNotAuthorized          = "You do not have permission to perform this action."
	DetailNotFound               = "Not found."
	DetailMalformedBody          = "Malformed request body."
)

// AuthScheme is advertised in WWW-Authenticate on 401 responses.
const AuthScheme = "Token"

// RespondError maps domain errors to HTTP responses using RFC7807.
// It reports whether the error was a server-side failure.
func RespondError(w http.ResponseWriter, err error) bool {
	var validationErr *shared.ValidationError
	var notFoundErr *shared.NotFoundError
	switch {
	case errors.As(err, &validationErr):
		JSON(w, http.StatusBadRequest, ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusBadRequest,
			Detail: "One or more fields are invalid.",
			Errors: validationErr.Fields,
		})
	case errors.Is(err, shared.ErrInvalidToken):
		Unauthorized(w, DetailInvalidToken)
	case errors.Is(err, shared.ErrAuthenticationRequired):
		Unauthorized(w, DetailAuthenticationRequired)
	case errors.Is(err, shared.ErrNotAuthorized):
		Problem(w, http.StatusForbidden, "Forbidden", DetailNotAuthorized)
	case errors.As(err, &notFoundErr):
		Problem(w, http.StatusNotFound, "Not Found", notFoundErr.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", DetailNotFound)
	case errors.Is(err, shared.ErrIdempotencyConflict):
		Problem(w, http.StatusConflict, "Conflict", "This request has already been processed.")
	case errors.Is(err, shared.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", "Resource already exists.")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return true
	}
	return false
}

// Unauthorized writes a 401 problem advertising the token scheme.
func Unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", AuthScheme)
	Problem(w, http.StatusUnauthorized, "Unauthorized", detail)
}
