package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// MaxBodyBytes bounds every JSON request body.
const MaxBodyBytes = 1 << 20

// ErrUnexpectedData is returned when a body holds more than one JSON value.
var ErrUnexpectedData = errors.New("request body must contain a single JSON value")

// Global validator instance for reuse
var validate = validator.New()

// DecodeJSON decodes the request body into v. Unknown fields are rejected.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return ErrUnexpectedData
	}
	return nil
}

// ValidateRequest validates the given struct using the validator package.
// Types that implement Validate() error are checked by that method as well.
func ValidateRequest(v any) error {
	if err := validate.Struct(v); err != nil {
		return err
	}

	if custom, ok := v.(interface{ Validate() error }); ok {
		if err := custom.Validate(); err != nil {
			return fmt.Errorf("validate request: %w", err)
		}
	}
	return nil
}
