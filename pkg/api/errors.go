package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ssargent/geoimg/pkg/record"
)

// Client facing messages
const (
	msgMissingFields = "Missing required fields"
	msgInvalidJSON   = "Invalid JSON request"
	msgTooLarge      = "Request body too large"
	msgInvalidID     = "Invalid image id"
	msgNotFound      = "Image not found"
)

// MissingFieldError reports upload fields that were absent, null or empty
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// DecodeError reports a pngBlob that is not valid base64
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("Invalid pngBlob encoding: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// InvalidIdentifierError reports an image id that cannot be parsed
type InvalidIdentifierError struct {
	Value string
	Err   error
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid image id %q: %v", e.Value, e.Err)
}

func (e *InvalidIdentifierError) Unwrap() error { return e.Err }

// StoreError wraps a failure returned by the record store
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

var (
	errInvalidJSON  = errors.New("invalid JSON request")
	errBodyTooLarge = errors.New("request body too large")
)

// classifyError maps an error to its HTTP status and response message
func classifyError(err error) (int, string) {
	var (
		missing *MissingFieldError
		decode  *DecodeError
		badID   *InvalidIdentifierError
	)

	switch {
	case errors.As(err, &missing):
		return http.StatusBadRequest, msgMissingFields
	case errors.As(err, &decode):
		return http.StatusBadRequest, decode.Error()
	case errors.As(err, &badID):
		return http.StatusBadRequest, msgInvalidID
	case errors.Is(err, errInvalidJSON):
		return http.StatusBadRequest, msgInvalidJSON
	case errors.Is(err, errBodyTooLarge):
		return http.StatusRequestEntityTooLarge, msgTooLarge
	case errors.Is(err, record.ErrNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, record.ErrInvalidRecord):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
