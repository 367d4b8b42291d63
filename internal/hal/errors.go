package hal

import (
	"errors"
	"fmt"
)

// RelationError indicates a requested link relation is absent from a
// resource's link table. Callers can avoid it by checking HasLink first.
type RelationError struct {
	Rel string
}

func (e *RelationError) Error() string {
	return fmt.Sprintf("resource has no link relation %q", e.Rel)
}

// ContentTypeError indicates a successful response carried a content type
// other than the hypermedia media type.
type ContentTypeError struct {
	ContentType string
	StatusCode  int
}

func (e *ContentTypeError) Error() string {
	return fmt.Sprintf("unsupported response content type %q (status %d)", e.ContentType, e.StatusCode)
}

// HalError is a structured server error: a failed response whose body
// carried a message field, optionally with per-field validation errors.
type HalError struct {
	StatusCode  int
	Message     string
	FieldErrors map[string]string
}

func (e *HalError) Error() string {
	return fmt.Sprintf("server error (status %d): %s", e.StatusCode, e.Message)
}

// ValidationError returns the validation message for a field. The second
// return is false when no message exists for that field, including when
// the error carries no field errors at all.
func (e *HalError) ValidationError(field string) (string, bool) {
	if e.FieldErrors == nil {
		return "", false
	}
	msg, ok := e.FieldErrors[field]
	return msg, ok
}

// HasValidationError reports whether a validation message exists for the
// field. Never panics, even without field errors.
func (e *HalError) HasValidationError(field string) bool {
	_, ok := e.ValidationError(field)
	return ok
}

// TransportError is a failed response whose body did not match the
// structured error shape: status code and status text only.
type TransportError struct {
	StatusCode int
	StatusText string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request failed: %d %s", e.StatusCode, e.StatusText)
}

// IsRelationError checks if the error is an unknown-relation error.
func IsRelationError(err error) bool {
	var e *RelationError
	return errors.As(err, &e)
}

// IsContentTypeError checks if the error is an unsupported content type error.
func IsContentTypeError(err error) bool {
	var e *ContentTypeError
	return errors.As(err, &e)
}

// IsHalError checks if the error is a structured server error.
func IsHalError(err error) bool {
	var e *HalError
	return errors.As(err, &e)
}

// IsTransportError checks if the error is a generic transport error.
func IsTransportError(err error) bool {
	var e *TransportError
	return errors.As(err, &e)
}
