package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes exposed to callers.
const (
	CodeValidation          = "VALIDATION_FAILED"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"
	CodeSessionExpired      = "SESSION_EXPIRED"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeDirectoryUnavail    = "DIRECTORY_UNAVAILABLE"
	CodeMigrationFailure    = "MIGRATION_FAILURE"
	CodeMigrationInProgress = "MIGRATION_IN_PROGRESS"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeInternal            = "INTERNAL_ERROR"
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
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

// NewInvalidCredentials covers unknown accounts and password mismatches alike.
func NewInvalidCredentials(err error) error {
	return &DomainError{
		Code:       CodeInvalidCredentials,
		Message:    "employee id or password is incorrect",
		HTTPStatus: http.StatusUnauthorized,
		Err:        err,
	}
}

func NewInvalidRefreshToken(err error) error {
	return &DomainError{
		Code:       CodeInvalidRefreshToken,
		Message:    "invalid refresh token, please log in again",
		HTTPStatus: http.StatusUnauthorized,
		Err:        err,
	}
}

func NewSessionExpired(err error) error {
	return &DomainError{
		Code:       CodeSessionExpired,
		Message:    "session expired, please log in again",
		HTTPStatus: http.StatusUnauthorized,
		Err:        err,
	}
}

func NewInvalidToken(err error) error {
	return &DomainError{
		Code:       CodeInvalidToken,
		Message:    "invalid token",
		HTTPStatus: http.StatusUnauthorized,
		Err:        err,
	}
}

func NewDirectoryUnavailable(err error) error {
	return &DomainError{
		Code:       CodeDirectoryUnavail,
		Message:    "staff directory is temporarily unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewMigrationFailure(employeeIDs []string, err error) error {
	return &DomainError{
		Code:       CodeMigrationFailure,
		Message:    "password migration failed for some staff records",
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"employee_ids": employeeIDs},
		Err:        err,
	}
}

func NewMigrationInProgress() error {
	return NewDomainError(CodeMigrationInProgress, "password migration already running", http.StatusConflict, nil)
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
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
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err carries the given domain code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}
