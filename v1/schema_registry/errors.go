package schema_registry

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMalformedWireFormat is returned for envelopes that are too short,
	// carry the wrong magic byte, or hold a payload that does not decode
	// under its schema.
	ErrMalformedWireFormat = errors.New("malformed wire format")

	// ErrSchemaNotFound is returned when the registry does not know the
	// requested id or subject/version. It is permanent.
	ErrSchemaNotFound = errors.New("schema not found")

	// ErrRegistryUnavailable is returned for network failures, 5xx responses
	// and responses that cannot be read.
	ErrRegistryUnavailable = errors.New("schema registry unavailable")

	// ErrInvalidSchema is returned when the registry rejects a definition (422).
	ErrInvalidSchema = errors.New("invalid schema")

	// ErrIncompatibleSchema is returned when a definition breaks the
	// subject's compatibility rules (409).
	ErrIncompatibleSchema = errors.New("incompatible schema")

	// ErrUnsupportedSchemaType is returned for a schema type with no Format.
	ErrUnsupportedSchemaType = errors.New("unsupported schema type")
)

// Registry error codes returned in the JSON error body.
const (
	errorCodeSubjectNotFound = 40401
	errorCodeVersionNotFound = 40402
	errorCodeSchemaNotFound  = 40403
)

// RegistryError is a non-2xx response from the registry.
type RegistryError struct {
	StatusCode int
	ErrorCode  int    `json:"error_code"`
	Message    string `json:"message"`

	kind error
}

func (e *RegistryError) Error() string {
	if e.ErrorCode != 0 {
		return fmt.Sprintf("schema registry returned status %d (code %d): %s", e.StatusCode, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("schema registry returned status %d: %s", e.StatusCode, e.Message)
}

// Unwrap returns the sentinel error the response maps to.
func (e *RegistryError) Unwrap() error {
	return e.kind
}

func classifyStatus(status, code int) error {
	switch {
	case status == http.StatusNotFound,
		code == errorCodeSubjectNotFound,
		code == errorCodeVersionNotFound,
		code == errorCodeSchemaNotFound:
		return ErrSchemaNotFound
	case status == http.StatusConflict:
		return ErrIncompatibleSchema
	case status == http.StatusUnprocessableEntity:
		return ErrInvalidSchema
	default:
		return ErrRegistryUnavailable
	}
}

// IsSchemaNotFoundError checks if the error is a schema not found error.
func IsSchemaNotFoundError(err error) bool {
	return errors.Is(err, ErrSchemaNotFound)
}

// IsRegistryUnavailableError checks if the error is a registry availability error.
func IsRegistryUnavailableError(err error) bool {
	return errors.Is(err, ErrRegistryUnavailable)
}

// IsMalformedWireFormatError checks if the error is a wire format error.
func IsMalformedWireFormatError(err error) bool {
	return errors.Is(err, ErrMalformedWireFormat)
}
