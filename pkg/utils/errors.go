package utils

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error reasons surfaced to callers. The routing layer maps them to HTTP
// status codes through CustomError.Code.
const (
	ReasonMissingRequiredField = "MissingRequiredField"
	ReasonInvalidFilterValue   = "InvalidFilterValue"
	ReasonTooManyCompanies     = "TooManyCompanies"
	ReasonLaunchFailed         = "LaunchFailed"
	ReasonNavigationFailed     = "NavigationFailed"
	ReasonNoListingsFound      = "NoListingsFound"
	ReasonRequestTimeout       = "RequestTimeout"
	ReasonInternal             = "InternalError"
)

// CustomError represents a custom application error
type CustomError struct {
	Code    int      `json:"code"`
	Reason  string   `json:"reason"`
	Message string   `json:"message"`
	Detail  string   `json:"detail,omitempty"`
	Field   string   `json:"field,omitempty"`
	Allowed []string `json:"allowed,omitempty"`

	cause error
}

func (e *CustomError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is / errors.As
func (e *CustomError) Unwrap() error {
	return e.cause
}

// WithCause attaches the underlying error and returns the receiver
func (e *CustomError) WithCause(err error) *CustomError {
	e.cause = err
	if e.Detail == "" && err != nil {
		e.Detail = err.Error()
	}
	return e
}

// Validation errors

func NewMissingFieldError(field string) *CustomError {
	return &CustomError{
		Code:    http.StatusBadRequest,
		Reason:  ReasonMissingRequiredField,
		Message: "Validation failed",
		Detail:  fmt.Sprintf("missing required parameter %q", field),
		Field:   field,
	}
}

func NewInvalidFilterValueError(field, value string, allowed []string) *CustomError {
	return &CustomError{
		Code:    http.StatusBadRequest,
		Reason:  ReasonInvalidFilterValue,
		Message: "Validation failed",
		Detail: fmt.Sprintf("invalid value %q for %s, allowed: %s",
			value, field, strings.Join(allowed, ", ")),
		Field:   field,
		Allowed: allowed,
	}
}

func NewTooManyCompaniesError(count, max int) *CustomError {
	return &CustomError{
		Code:    http.StatusBadRequest,
		Reason:  ReasonTooManyCompanies,
		Message: "Validation failed",
		Detail:  fmt.Sprintf("%d companies requested, at most %d allowed", count, max),
		Field:   "company",
	}
}

// Scrape-path errors

func NewLaunchFailedError(err error) *CustomError {
	return (&CustomError{
		Code:    http.StatusBadGateway,
		Reason:  ReasonLaunchFailed,
		Message: "Browser launch failed",
	}).WithCause(err)
}

// NewNavigationFailedError reports a navigation that could not be completed.
// Exhausted timeouts surface as 504, every other navigation failure as 502.
func NewNavigationFailedError(url string, timedOut bool, err error) *CustomError {
	code := http.StatusBadGateway
	if timedOut {
		code = http.StatusGatewayTimeout
	}
	return (&CustomError{
		Code:    code,
		Reason:  ReasonNavigationFailed,
		Message: fmt.Sprintf("Navigation to %s failed", url),
	}).WithCause(err)
}

func NewNoListingsFoundError(detail string) *CustomError {
	return &CustomError{
		Code:    http.StatusBadGateway,
		Reason:  ReasonNoListingsFound,
		Message: "No parseable listings found",
		Detail:  detail,
	}
}

func NewRequestTimeoutError(err error) *CustomError {
	return (&CustomError{
		Code:    http.StatusGatewayTimeout,
		Reason:  ReasonRequestTimeout,
		Message: "Timed out waiting for scrape",
	}).WithCause(err)
}

func NewInternalServerError(message string) *CustomError {
	return &CustomError{
		Code:    http.StatusInternalServerError,
		Reason:  ReasonInternal,
		Message: message,
	}
}

// AsCustomError returns the CustomError in err's chain, if any
func AsCustomError(err error) (*CustomError, bool) {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// HasReason reports whether err carries a CustomError with the given reason
func HasReason(err error, reason string) bool {
	ce, ok := AsCustomError(err)
	return ok && ce.Reason == reason
}

// IsValidation reports whether err is a filter validation failure
func IsValidation(err error) bool {
	ce, ok := AsCustomError(err)
	if !ok {
		return false
	}
	switch ce.Reason {
	case ReasonMissingRequiredField, ReasonInvalidFilterValue, ReasonTooManyCompanies:
		return true
	}
	return false
}

// IsScrapeFailure reports whether err came from the session or extraction
// stages, the failures that are eligible for stale cache fallback.
func IsScrapeFailure(err error) bool {
	ce, ok := AsCustomError(err)
	if !ok {
		return false
	}
	switch ce.Reason {
	case ReasonLaunchFailed, ReasonNavigationFailed, ReasonNoListingsFound:
		return true
	}
	return false
}

// StatusCode maps any error to the HTTP status the routing layer should use
func StatusCode(err error) int {
	if ce, ok := AsCustomError(err); ok && ce.Code != 0 {
		return ce.Code
	}
	return http.StatusInternalServerError
}
