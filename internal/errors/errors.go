package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrSweetNotFound is returned when a product does not exist.
	ErrSweetNotFound = errors.New("sweet not found")
	// ErrInsufficientStock is returned when a purchase exceeds the stock on hand.
	ErrInsufficientStock = errors.New("insufficient quantity in stock")
	// ErrInvalidQuantity is returned when a quantity is out of range.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrDuplicateIdentity is returned when registering an existing email.
	ErrDuplicateIdentity = errors.New("email already exists")
	// ErrInvalidCredentials is returned for unknown emails and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTooManyAttempts is returned when an email is locked out after failed logins.
	ErrTooManyAttempts = errors.New("too many failed login attempts")
	// ErrUnauthenticated is returned when the session token is missing or invalid.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when the caller lacks the administrator role.
	ErrForbidden = errors.New("admin access required")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ValidationError carries a message per rejected input field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// NewValidationError creates a validation error for the given fields.
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// FieldError is a shortcut for a single rejected field.
func FieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Fields     map[string]string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error:  e.Message,
		Code:   e.Code,
		Fields: e.Fields,
	}
}

// Internal reports whether the error maps to a 500.
func (e *HTTPError) Internal() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

// MapErrorToHTTP maps domain errors to HTTP errors. Anything unknown becomes a
// generic 500 so internal details never reach the client.
func MapErrorToHTTP(err error) *HTTPError {
	var verr *ValidationError
	if errors.As(err, &verr) {
		httpErr := NewHTTPError(http.StatusBadRequest, verr.Error(), "VALIDATION_ERROR")
		httpErr.Fields = verr.Fields
		return httpErr
	}

	switch {
	case errors.Is(err, ErrSweetNotFound):
		return NewHTTPError(http.StatusNotFound, ErrSweetNotFound.Error(), "SWEET_NOT_FOUND")
	case errors.Is(err, ErrInsufficientStock):
		return NewHTTPError(http.StatusBadRequest, ErrInsufficientStock.Error(), "INSUFFICIENT_STOCK")
	case errors.Is(err, ErrInvalidQuantity):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidQuantity.Error(), "INVALID_QUANTITY")
	case errors.Is(err, ErrDuplicateIdentity):
		return NewHTTPError(http.StatusConflict, ErrDuplicateIdentity.Error(), "DUPLICATE_IDENTITY")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrTooManyAttempts):
		return NewHTTPError(http.StatusTooManyRequests, ErrTooManyAttempts.Error(), "TOO_MANY_ATTEMPTS")
	case errors.Is(err, ErrUnauthenticated):
		return NewHTTPError(http.StatusUnauthorized, ErrUnauthenticated.Error(), "UNAUTHENTICATED")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, ErrForbidden.Error(), "FORBIDDEN")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
