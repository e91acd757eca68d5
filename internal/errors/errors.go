package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation is returned when request fields are missing or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized is returned when the caller is not authenticated.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the caller lacks the role or does not own the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when an entity is missing or soft-deleted.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write would break referential integrity.
	ErrConflict = errors.New("conflict")
	// ErrCategoryInUse is returned when deleting a category that still has products.
	ErrCategoryInUse = errors.New("Cannot delete category that has products")
	// ErrInsufficientStock is returned when a cart quantity exceeds available stock.
	ErrInsufficientStock = errors.New("Not enough stock available")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidRefreshToken is returned when a refresh token is unknown, expired or revoked.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
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
		Error: e.Message,
		Code:  e.Code,
	}
}

type mapping struct {
	target error
	status int
	code   string
}

// Order matters: more specific sentinels come before the generic ones they wrap.
var mappings = []mapping{
	{ErrCategoryInUse, http.StatusBadRequest, "CATEGORY_IN_USE"},
	{ErrInsufficientStock, http.StatusBadRequest, "INSUFFICIENT_STOCK"},
	{ErrEmailTaken, http.StatusConflict, "EMAIL_TAKEN"},
	{ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{ErrInvalidRefreshToken, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN"},
	{ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
	{ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
	{ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{ErrConflict, http.StatusConflict, "CONFLICT"},
}

// MapErrorToHTTP maps domain errors to HTTP errors. The message of a wrapped
// sentinel carries its detail (e.g. "not found: product 7"); anything that is
// not a domain error becomes a generic 500 so internals never leak.
func MapErrorToHTTP(err error) *HTTPError {
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return NewHTTPError(m.status, message(err, m.target), m.code)
		}
	}
	return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
}

// Detailed is an error whose client-facing message differs from Error().
type Detailed interface {
	ClientMessage() string
}

func message(err, target error) string {
	var d Detailed
	if errors.As(err, &d) {
		return d.ClientMessage()
	}
	if err == target {
		return target.Error()
	}
	return err.Error()
}

type detailed struct {
	sentinel error
	msg      string
}

func (d *detailed) Error() string         { return d.sentinel.Error() + ": " + d.msg }
func (d *detailed) Unwrap() error         { return d.sentinel }
func (d *detailed) ClientMessage() string { return d.msg }

// WithMessage wraps sentinel so it still matches errors.Is while the HTTP
// response shows msg verbatim, e.g. "Only 3 items available in stock".
func WithMessage(sentinel error, msg string) error {
	return &detailed{sentinel: sentinel, msg: msg}
}
