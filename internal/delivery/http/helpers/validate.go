package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"eventscheduler/internal/domain"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// Validator is implemented by request bodies that check their own fields. Validate returns
// nil or a *domain.ValidationError keyed by JSON field name.
type Validator interface {
	Validate() error
}

// DecodeAndValidate decodes a single JSON object into dest, rejecting unknown fields, and runs
// dest's Validate when it has one. A malformed body is 400 bad_request; a field failure is
// 400 validation_failed with the field map. It returns false once it has written a response.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dest any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, decodeMessage(err))
		return false
	}
	if dec.More() {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, "request body must contain a single JSON object")
		return false
	}
	if v, ok := dest.(Validator); ok {
		if err := v.Validate(); err != nil {
			WriteError(w, err)
			return false
		}
	}
	return true
}

func decodeMessage(err error) string {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		return "request body is required"
	case errors.As(err, &maxErr):
		return "request body too large"
	default:
		return err.Error()
	}
}

// RequireEmail records a field error on verr when email is blank or malformed.
func RequireEmail(verr *domain.ValidationError, field, email string) {
	switch {
	case email == "":
		verr.Add(field, "Email is required")
	case !domain.ValidEmail(email):
		verr.Add(field, "Email is invalid")
	}
}
