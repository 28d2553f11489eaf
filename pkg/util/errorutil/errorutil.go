package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinels wrapped by DomainError so callers can use errors.Is.
var (
	ErrTokenNotFound       = errors.New("token not found")
	ErrTokenExpired        = errors.New("token expired")
	ErrValidation          = errors.New("validation failed")
	ErrConflict            = errors.New("conflict")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	de := NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
	de.Err = ErrValidation
	return de
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewTokenNotFound reports a link whose secret matches no token.
func NewTokenNotFound() error {
	return &DomainError{
		Code:       "TOKEN_NOT_FOUND",
		Message:    "invalid link",
		HTTPStatus: http.StatusNotFound,
		Err:        ErrTokenNotFound,
	}
}

// NewTokenExpired reports a token that exists but is revoked or past its expiry.
func NewTokenExpired(details map[string]any) error {
	return &DomainError{
		Code:       "TOKEN_EXPIRED",
		Message:    "link expired, ask your employer for a new one",
		HTTPStatus: http.StatusGone,
		Details:    details,
		Err:        ErrTokenExpired,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	de := NewDomainError("CONFLICT", message, http.StatusConflict, details)
	de.Err = ErrConflict
	return de
}

// NewUpstreamUnavailable marks a failure the caller may retry with backoff.
func NewUpstreamUnavailable(err error) error {
	return &DomainError{
		Code:       "UPSTREAM_UNAVAILABLE",
		Message:    "upstream unavailable, retry later",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        errors.Join(ErrUpstreamUnavailable, err),
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	if IsRetryable(err) {
		return NewUpstreamUnavailable(err).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

// IsRetryable reports whether err is a transient infrastructure failure.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUpstreamUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}

func MapError(err error) error {
	return ToDomainError(err)
}
